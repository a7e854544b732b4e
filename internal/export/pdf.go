package export

import (
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/finflow/internal/analytics"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/finance"
	"github.com/dvloznov/finflow/internal/format"
	"github.com/go-pdf/fpdf"
)

type rgb struct{ r, g, b int }

var (
	colorBrand   = rgb{103, 58, 183}
	colorIncome  = rgb{16, 185, 129}
	colorExpense = rgb{239, 68, 68}
	colorMuted   = rgb{100, 100, 100}
	colorText    = rgb{40, 40, 40}
	colorTrack   = rgb{240, 240, 240}
	colorBarBg   = rgb{225, 216, 241}
	colorStripe  = rgb{245, 245, 245}
)

// Page geometry in millimetres on A4 portrait.
const (
	marginLeft  = 14.0
	contentW    = 180.0
	rowHeight   = 7.0
	footerSpace = 20.0
)

var tableColumns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 28, "L"},
	{"Description", 62, "L"},
	{"Category", 32, "L"},
	{"Type", 22, "L"},
	{"Amount", 36, "R"},
}

// PDFFilename is the attachment name for a report generated at r.GeneratedAt.
func PDFFilename(r *finance.Report) string {
	return fmt.Sprintf("finflow_report_%s.pdf", domain.FormatDate(r.GeneratedAt))
}

// WritePDF renders the report: title, income/expense summary, top spending
// categories and the full transaction table.
func WritePDF(w io.Writer, r *finance.Report) error {
	pdf := buildPDF(r, true)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("WritePDF: %w", err)
	}
	return nil
}

func buildPDF(r *finance.Report, compress bool) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetTitle("Finflow - Financial Report", true)
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetMargins(marginLeft, 20, marginLeft)
	pdf.SetAutoPageBreak(false, footerSpace)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pageW, pageH := pdf.GetPageSize()
		pdf.SetFont("Helvetica", "", 8)
		setText(pdf, rgb{150, 150, 150})
		pdf.Text(marginLeft, pageH-10, "Finflow - Personal AI Finance Tracker")
		pdf.Text(pageW-25, pageH-10, fmt.Sprintf("Page %d", pdf.PageNo()))
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	setText(pdf, colorBrand)
	pdf.Text(marginLeft, 22, "Finflow - Financial Report")

	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colorMuted)
	pdf.Text(marginLeft, 30, fmt.Sprintf("Generated on: %s", r.GeneratedAt.Format("2 Jan 2006 15:04")))
	pdf.Text(marginLeft, 36, fmt.Sprintf("Period: %s - %s   Total Transactions: %d", r.Range.From, r.Range.To, len(r.Transactions)))

	drawSummary(pdf, r.Summary)
	y := drawCategories(pdf, tr, r.Summary.PerCategory)
	drawTable(pdf, tr, r.Transactions, y+10)
	return pdf
}

func drawSummary(pdf *fpdf.Fpdf, s analytics.Summary) {
	pdf.SetFont("Helvetica", "B", 14)
	setText(pdf, colorText)
	pdf.Text(marginLeft, 48, "Financial Summary")

	turnover := s.TotalIncome + s.TotalExpense
	incomeW := contentW / 2
	if turnover > 0 {
		incomeW = s.TotalIncome * contentW / turnover
	}
	setFill(pdf, colorTrack)
	pdf.Rect(marginLeft, 54, contentW, 8, "F")
	setFill(pdf, colorIncome)
	pdf.Rect(marginLeft, 54, incomeW, 8, "F")
	if turnover > 0 && s.TotalExpense > 0 {
		setFill(pdf, colorExpense)
		pdf.Rect(marginLeft+incomeW, 54, contentW-incomeW, 8, "F")
	}

	pdf.SetFont("Helvetica", "", 9)
	setText(pdf, colorMuted)
	pdf.Text(marginLeft, 68, "Income: "+format.Rupiah(s.TotalIncome))
	pdf.Text(110, 68, "Expense: "+format.Rupiah(s.TotalExpense))

	pdf.SetFont("Helvetica", "B", 12)
	if s.Balance >= 0 {
		setText(pdf, colorIncome)
	} else {
		setText(pdf, colorExpense)
	}
	pdf.Text(marginLeft, 78, "Net Balance: "+format.Rupiah(s.Balance))
}

// drawCategories draws one bar per top spending category and returns the y below the chart.
func drawCategories(pdf *fpdf.Fpdf, tr func(string) string, totals []analytics.CategoryTotal) float64 {
	pdf.SetFont("Helvetica", "B", 14)
	setText(pdf, colorText)
	pdf.Text(marginLeft, 92, "Spending by Category")

	if len(totals) > analytics.DefaultTopExpenses {
		totals = totals[:analytics.DefaultTopExpenses]
	}
	top := 1.0
	for _, c := range totals {
		if c.Amount > top {
			top = c.Amount
		}
	}

	y := 100.0
	for _, c := range totals {
		pdf.SetFont("Helvetica", "", 10)
		setText(pdf, rgb{60, 60, 60})
		pdf.Text(marginLeft, y+5, tr(truncate(c.Category, 18)))

		setFill(pdf, colorBarBg)
		pdf.Rect(50, y, 120, 6, "F")
		setFill(pdf, colorBrand)
		pdf.Rect(50, y, c.Amount/top*120, 6, "F")

		pdf.SetFont("Helvetica", "", 9)
		pdf.Text(172, y+5, format.Compact(c.Amount))
		y += 10
	}
	return y
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, txs []*domain.Transaction, y float64) {
	_, pageH := pdf.GetPageSize()
	pdf.SetXY(marginLeft, y)
	drawTableHeader(pdf)

	pdf.SetFont("Helvetica", "", 9)
	for i, tx := range txs {
		if pdf.GetY()+rowHeight > pageH-footerSpace {
			pdf.AddPage()
			drawTableHeader(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}
		setText(pdf, colorText)
		setFill(pdf, colorStripe)
		fill := i%2 == 1

		cells := []string{
			displayDate(tx.Date),
			tr(truncate(tx.Description, 38)),
			tr(truncate(tx.Category, 18)),
			typeLabelEN(tx.Type),
			format.Rupiah(tx.Amount),
		}
		for j, c := range tableColumns {
			pdf.CellFormat(c.width, rowHeight, cells[j], "", 0, c.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

func drawTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	setFill(pdf, colorBrand)
	setText(pdf, rgb{255, 255, 255})
	for _, c := range tableColumns {
		pdf.CellFormat(c.width, rowHeight+1, c.title, "", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)
}

func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }

func displayDate(date string) string {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("2 Jan 2006")
}

func typeLabelEN(t domain.TransactionType) string {
	if t == domain.TypeIncome {
		return "Income"
	}
	return "Expense"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
