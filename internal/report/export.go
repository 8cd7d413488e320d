package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
)

// Format is an export document format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
	windowLayout    = "2006-01-02 15:04"
)

// Document is a rendered export.
type Document struct {
	FileName    string
	ContentType string
	Body        []byte
}

// ParseFormat accepts xlsx and pdf, case-insensitively.
func ParseFormat(raw string) (Format, error) {
	switch format := Format(strings.ToLower(strings.TrimSpace(raw))); format {
	case FormatXLSX, FormatPDF:
		return format, nil
	default:
		return "", invalid(subjectExport, fmt.Sprintf("unsupported format %q", raw))
	}
}

// RenderCarMonth renders a single-car monthly report in format.
func RenderCarMonth(report CarMonthReport, format Format) (Document, error) {
	baseName := fmt.Sprintf("car-%s-%s", report.Meta.CarID, report.Meta.Month)
	switch format {
	case FormatXLSX:
		body, err := BuildCarMonthXLSX(report)
		if err != nil {
			return Document{}, ledger.WrapError("render", subjectExport, string(format), err)
		}
		return Document{FileName: baseName + ".xlsx", ContentType: contentTypeXLSX, Body: body}, nil
	case FormatPDF:
		body, err := BuildCarMonthPDF(report)
		if err != nil {
			return Document{}, ledger.WrapError("render", subjectExport, string(format), err)
		}
		return Document{FileName: baseName + ".pdf", ContentType: contentTypePDF, Body: body}, nil
	default:
		return Document{}, invalid(subjectExport, fmt.Sprintf("unsupported format %q", format))
	}
}

// BuildCarMonthPDF renders a printable statement for one car and month.
func BuildCarMonthPDF(report CarMonthReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Monthly Car Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Car: %s", carLabel(report.Meta)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Month: %s", report.Meta.Month))
	pdf.Ln(8)

	financials := report.Financials
	pdf.Cell(0, 6, fmt.Sprintf("Revenue: %s", financials.Revenue.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Expenses: %s", financials.Expense.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fines: %s (paid %s)", financials.FinesTotal.StringFixed(2), financials.FinesPaid.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Net profit: %s", financials.NetProfit.StringFixed(2)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Customer", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(15, 6, "Days", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Income", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Paid", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Remaining", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range report.Lists.Reservations {
		pdf.CellFormat(50, 6, line.CustomerName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, formatStart(line), "1", 0, "C", false, 0, "")
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", line.DaysCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, line.TotalIncome.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, line.TotalPaid.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, line.Remaining.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(report.Lists.Expenses) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(30, 6, "Date", "1", 0, "C", false, 0, "")
		pdf.CellFormat(95, 6, "Expense", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Amount", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, expense := range report.Lists.Expenses {
			pdf.CellFormat(30, 6, expense.EffectiveDate().String(), "1", 0, "C", false, 0, "")
			pdf.CellFormat(95, 6, expense.Title, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, expense.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildCarMonthXLSX renders the statement as a workbook with summary,
// reservations, expenses and fines sheets.
func BuildCarMonthXLSX(report CarMonthReport) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	summarySheet := "summary"
	reservationsSheet := "reservations"
	expensesSheet := "expenses"
	finesSheet := "fines"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for _, sheet := range []string{reservationsSheet, expensesSheet, finesSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}

	financials := report.Financials
	_ = f.SetCellValue(summarySheet, "A1", "Monthly Car Statement")
	_ = f.SetCellValue(summarySheet, "A3", "Car")
	_ = f.SetCellValue(summarySheet, "B3", carLabel(report.Meta))
	_ = f.SetCellValue(summarySheet, "A4", "Month")
	_ = f.SetCellValue(summarySheet, "B4", report.Meta.Month)
	_ = f.SetCellValue(summarySheet, "A5", "Revenue")
	_ = f.SetCellValue(summarySheet, "B5", financials.Revenue.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A6", "Expenses")
	_ = f.SetCellValue(summarySheet, "B6", financials.Expense.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A7", "Fines")
	_ = f.SetCellValue(summarySheet, "B7", financials.FinesTotal.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A8", "Fines paid")
	_ = f.SetCellValue(summarySheet, "B8", financials.FinesPaid.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A9", "Net profit")
	_ = f.SetCellValue(summarySheet, "B9", financials.NetProfit.InexactFloat64())

	_ = f.SetCellValue(reservationsSheet, "A1", "Reservation")
	_ = f.SetCellValue(reservationsSheet, "B1", "Customer")
	_ = f.SetCellValue(reservationsSheet, "C1", "Start")
	_ = f.SetCellValue(reservationsSheet, "D1", "Days")
	_ = f.SetCellValue(reservationsSheet, "E1", "Income")
	_ = f.SetCellValue(reservationsSheet, "F1", "Paid")
	_ = f.SetCellValue(reservationsSheet, "G1", "Remaining")
	_ = f.SetCellValue(reservationsSheet, "H1", "Status")
	for i, line := range report.Lists.Reservations {
		row := i + 2
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("A%d", row), line.ID)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("B%d", row), line.CustomerName)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("C%d", row), formatStart(line))
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("D%d", row), line.DaysCount)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("E%d", row), line.TotalIncome.InexactFloat64())
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("F%d", row), line.TotalPaid.InexactFloat64())
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("G%d", row), line.Remaining.InexactFloat64())
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("H%d", row), string(line.Status))
	}

	_ = f.SetCellValue(expensesSheet, "A1", "Date")
	_ = f.SetCellValue(expensesSheet, "B1", "Title")
	_ = f.SetCellValue(expensesSheet, "C1", "Amount")
	for i, expense := range report.Lists.Expenses {
		row := i + 2
		_ = f.SetCellValue(expensesSheet, fmt.Sprintf("A%d", row), expense.EffectiveDate().String())
		_ = f.SetCellValue(expensesSheet, fmt.Sprintf("B%d", row), expense.Title)
		_ = f.SetCellValue(expensesSheet, fmt.Sprintf("C%d", row), expense.Amount.InexactFloat64())
	}

	_ = f.SetCellValue(finesSheet, "A1", "Date")
	_ = f.SetCellValue(finesSheet, "B1", "Reason")
	_ = f.SetCellValue(finesSheet, "C1", "Amount")
	_ = f.SetCellValue(finesSheet, "D1", "Paid")
	for i, fine := range report.Lists.Fines {
		row := i + 2
		_ = f.SetCellValue(finesSheet, fmt.Sprintf("A%d", row), fine.Date.String())
		_ = f.SetCellValue(finesSheet, fmt.Sprintf("B%d", row), fine.Reason)
		_ = f.SetCellValue(finesSheet, fmt.Sprintf("C%d", row), fine.Amount.InexactFloat64())
		_ = f.SetCellValue(finesSheet, fmt.Sprintf("D%d", row), fine.AmountPaid.InexactFloat64())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func carLabel(meta CarMonthMeta) string {
	if meta.CarName != "" {
		return meta.CarName
	}
	return meta.CarID
}

func formatStart(line CarMonthReservation) string {
	if line.StartDate.IsZero() {
		return ""
	}
	return line.StartDate.Format(windowLayout)
}
