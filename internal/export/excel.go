// Package export renders a finance.Report as a spreadsheet or a PDF document.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/finance"
	"github.com/xuri/excelize/v2"
)

// Content types and default file names for the HTTP download responses.
const (
	ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	PDFContentType   = "application/pdf"
)

const (
	sheetTransactions = "Keuangan"
	sheetSummary      = "Ringkasan"

	// Built-in number format "#,##0".
	numFmtThousands = 3
)

var excelColumns = []struct {
	header string
	col    string
	width  float64
}{
	{"Tanggal", "A", 15},
	{"Jenis", "B", 15},
	{"Kategori", "C", 20},
	{"Nominal", "D", 20},
	{"Catatan", "E", 30},
}

// ExcelFilename is the attachment name for a report covering r.
func ExcelFilename(r *finance.Report) string {
	return fmt.Sprintf("laporan-keuangan_%s_%s.xlsx", r.Range.From, r.Range.To)
}

// WriteExcel writes the report as an .xlsx workbook with a transaction sheet and a
// summary sheet.
func WriteExcel(w io.Writer, r *finance.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetTransactions); err != nil {
		return fmt.Errorf("WriteExcel: %w", err)
	}
	if err := writeTransactionSheet(f, r.Transactions); err != nil {
		return fmt.Errorf("WriteExcel: %w", err)
	}
	if err := writeSummarySheet(f, r); err != nil {
		return fmt.Errorf("WriteExcel: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteExcel: writing workbook: %w", err)
	}
	return nil
}

func writeTransactionSheet(f *excelize.File, txs []*domain.Transaction) error {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: numFmtThousands})
	if err != nil {
		return fmt.Errorf("creating amount style: %w", err)
	}

	for i, c := range excelColumns {
		if err := f.SetCellValue(sheetTransactions, c.col+"1", c.header); err != nil {
			return err
		}
		if err := f.SetColWidth(sheetTransactions, c.col, c.col, c.width); err != nil {
			return err
		}
		if i == len(excelColumns)-1 {
			if err := f.SetCellStyle(sheetTransactions, "A1", c.col+"1", header); err != nil {
				return err
			}
		}
	}

	for i, tx := range txs {
		row := i + 2
		values := []interface{}{tx.Date, typeLabelID(tx.Type), tx.Category, tx.Amount, tx.Description}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetTransactions, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
	}
	if len(txs) > 0 {
		last := fmt.Sprintf("D%d", len(txs)+1)
		if err := f.SetCellStyle(sheetTransactions, "D2", last, amount); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, r *finance.Report) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Periode", fmt.Sprintf("%s s/d %s", r.Range.From, r.Range.To)},
		{"Dibuat", r.GeneratedAt.Format(time.RFC3339)},
		{"Jumlah Transaksi", len(r.Transactions)},
		{"Total Pemasukan", r.Summary.TotalIncome},
		{"Total Pengeluaran", r.Summary.TotalExpense},
		{"Saldo", r.Summary.Balance},
		{"Rasio Tabungan (%)", r.Summary.SavingsRate},
		{},
		{"Kategori", "Pengeluaran"},
	}
	for _, c := range r.Summary.PerCategory {
		rows = append(rows, []interface{}{c.Category, c.Amount})
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &rows[i]); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(sheetSummary, "A", "B", 24)
}

func typeLabelID(t domain.TransactionType) string {
	if t == domain.TypeIncome {
		return "Pemasukan"
	}
	return "Pengeluaran"
}
