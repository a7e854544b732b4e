package notionsync

import (
	"time"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the mirror database.
const (
	PropDescription   = "Description"
	PropTransactionID = "Transaction ID"
	PropUser          = "User"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropCurrency      = "Currency"
	PropType          = "Type"
	PropCategory      = "Category"
	PropSource        = "Source"
	PropReceipt       = "Receipt"
	PropRecordedAt    = "Recorded At"
)

// Currency is the only currency the tracker records.
const Currency = "IDR"

// TransactionToNotionProperties converts a transaction into a database row.
func TransactionToNotionProperties(tx *domain.Transaction) notionapi.Properties {
	title := tx.Description
	if title == "" {
		title = tx.Category
	}

	props := notionapi.Properties{
		PropDescription:   notionapi.TitleProperty{Title: richText(title)},
		PropTransactionID: notionapi.RichTextProperty{RichText: richText(tx.ID)},
		PropUser:          notionapi.RichTextProperty{RichText: richText(tx.UserEmail)},
		PropAmount:        notionapi.NumberProperty{Number: tx.Amount},
		PropCurrency:      notionapi.SelectProperty{Select: notionapi.Option{Name: Currency}},
		PropType:          notionapi.SelectProperty{Select: notionapi.Option{Name: string(tx.Type)}},
		PropSource:        notionapi.SelectProperty{Select: notionapi.Option{Name: string(tx.Source)}},
	}

	if tx.Category != "" {
		props[PropCategory] = notionapi.SelectProperty{Select: notionapi.Option{Name: tx.Category}}
	}
	if d, err := time.Parse(domain.DateLayout, tx.Date); err == nil {
		props[PropDate] = dateProperty(d)
	}
	if !tx.CreatedAt.IsZero() {
		props[PropRecordedAt] = dateProperty(tx.CreatedAt)
	}
	if tx.ReceiptURI != "" {
		props[PropReceipt] = notionapi.URLProperty{URL: tx.ReceiptURI}
	}
	return props
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type:      notionapi.ObjectTypeText,
		Text:      &notionapi.Text{Content: content},
		PlainText: content,
	}}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}

// extractTransactionID reads the Transaction ID property of a mirrored page.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	var texts []notionapi.RichText
	switch prop := page.Properties[PropTransactionID].(type) {
	case *notionapi.RichTextProperty:
		texts = prop.RichText
	case notionapi.RichTextProperty:
		texts = prop.RichText
	}
	if len(texts) == 0 {
		return ""
	}
	if texts[0].PlainText != "" {
		return texts[0].PlainText
	}
	if texts[0].Text != nil {
		return texts[0].Text.Content
	}
	return ""
}
