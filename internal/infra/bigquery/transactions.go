package bigquery

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finflow/internal/domain"
)

// TransactionRow mirrors the transactions table.
type TransactionRow struct {
	ID        string     `bigquery:"id"`         // REQUIRED
	UserEmail string     `bigquery:"user_email"` // REQUIRED
	Date      civil.Date `bigquery:"date"`       // REQUIRED
	CreatedAt time.Time  `bigquery:"created_at"` // REQUIRED

	Amount float64 `bigquery:"amount"` // REQUIRED
	Type   string  `bigquery:"type"`   // REQUIRED, income|expense
	Source string  `bigquery:"source"` // REQUIRED, text|audio|image

	Category    bigquery.NullString `bigquery:"category"`
	Description bigquery.NullString `bigquery:"description"`

	Items    bigquery.NullJSON    `bigquery:"items"` // JSON array of line items
	Tax      bigquery.NullFloat64 `bigquery:"tax"`
	Discount bigquery.NullFloat64 `bigquery:"discount"`

	ReceiptURI bigquery.NullString `bigquery:"receipt_uri"`
}

const transactionColumns = `
	id,
	user_email,
	date,
	created_at,
	amount,
	type,
	source,
	category,
	description,
	items,
	tax,
	discount,
	receipt_uri`

func transactionToRow(tx *domain.Transaction) (*TransactionRow, error) {
	date, err := civil.ParseDate(tx.Date)
	if err != nil {
		return nil, fmt.Errorf("transactionToRow: parsing date %q: %w", tx.Date, err)
	}

	row := &TransactionRow{
		ID:          tx.ID,
		UserEmail:   tx.UserEmail,
		Date:        date,
		CreatedAt:   tx.CreatedAt,
		Amount:      tx.Amount,
		Type:        string(tx.Type),
		Source:      string(tx.Source),
		Category:    nullString(tx.Category),
		Description: nullString(tx.Description),
		ReceiptURI:  nullString(tx.ReceiptURI),
		Tax:         nullFloat(tx.Tax),
		Discount:    nullFloat(tx.Discount),
	}

	if len(tx.Items) > 0 {
		data, err := json.Marshal(tx.Items)
		if err != nil {
			return nil, fmt.Errorf("transactionToRow: marshaling items: %w", err)
		}
		row.Items = bigquery.NullJSON{JSONVal: string(data), Valid: true}
	}
	return row, nil
}

func rowToTransaction(row *TransactionRow) (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:          row.ID,
		UserEmail:   row.UserEmail,
		Date:        row.Date.String(),
		CreatedAt:   row.CreatedAt,
		Amount:      row.Amount,
		Type:        domain.TransactionType(row.Type),
		Source:      domain.Source(row.Source),
		Category:    row.Category.StringVal,
		Description: row.Description.StringVal,
		ReceiptURI:  row.ReceiptURI.StringVal,
	}
	if row.Tax.Valid {
		v := row.Tax.Float64
		tx.Tax = &v
	}
	if row.Discount.Valid {
		v := row.Discount.Float64
		tx.Discount = &v
	}
	if row.Items.Valid && row.Items.JSONVal != "" {
		if err := json.Unmarshal([]byte(row.Items.JSONVal), &tx.Items); err != nil {
			return nil, fmt.Errorf("rowToTransaction: decoding items of %s: %w", row.ID, err)
		}
	}
	return tx, nil
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullFloat(f *float64) bigquery.NullFloat64 {
	if f == nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: *f, Valid: true}
}
