package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts an empty value as json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// SummaryLine is one label/value pair of the block printed after the rows.
type SummaryLine struct {
	Label string
	Value string
}

// Table is the export shape shared by every report. Column order is fixed per
// report and never depends on the data.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
	Summary []SummaryLine
}

// FileName is the download name for the table in format f.
func (t Table) FileName(f Format) string {
	name := strings.ToLower(strings.Join(strings.Fields(t.Title), "-"))
	if name == "" {
		name = "report"
	}
	return name + "." + string(f)
}

// Write renders the table in format f. JSON is not a table format.
func (t Table) Write(w io.Writer, f Format) error {
	switch f {
	case FormatCSV:
		return t.WriteCSV(w)
	case FormatXLSX:
		return t.WriteXLSX(w)
	case FormatPDF:
		return t.WritePDF(w)
	}
	return fmt.Errorf("format %q cannot be exported as a table", f)
}

// WriteCSV writes the header, the rows, one blank line and the summary block.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	if len(t.Summary) > 0 {
		if err := cw.Write([]string{""}); err != nil {
			return err
		}
		if err := cw.Write([]string{"Summary"}); err != nil {
			return err
		}
		for _, s := range t.Summary {
			if err := cw.Write([]string{s.Label, s.Value}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func (t Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Report"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rowNo := 1
	setRow := func(values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNo)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		rowNo++
		return f.SetSheetRow(sheet, cell, &row)
	}

	if err := setRow(t.Columns); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}
	for _, r := range t.Rows {
		if err := setRow(r); err != nil {
			return err
		}
	}
	if len(t.Summary) > 0 {
		rowNo++
		summaryStart := rowNo
		if err := setRow([]string{"Summary"}); err != nil {
			return err
		}
		if err := f.SetRowStyle(sheet, summaryStart, summaryStart, bold); err != nil {
			return err
		}
		for _, s := range t.Summary {
			if err := setRow([]string{s.Label, s.Value}); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

// WritePDF lays the table out on landscape A4 pages with equal column widths.
func (t Table) WritePDF(w io.Writer) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(t.Title, false)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, t.Title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(max(len(t.Columns), 1))

	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range t.Columns {
			pdf.CellFormat(colW, 6, c, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	header()
	_, pageH := pdf.GetPageSize()
	for _, r := range t.Rows {
		if pdf.GetY()+6 > pageH-10 {
			pdf.AddPage()
			header()
		}
		for _, v := range r {
			pdf.CellFormat(colW, 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(t.Summary) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Summary", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, s := range t.Summary {
			pdf.CellFormat(70, 5, s.Label, "", 0, "L", false, 0, "")
			pdf.CellFormat(50, 5, s.Value, "", 1, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func kg(d decimal.Decimal) string {
	return d.StringFixed(2)
}
