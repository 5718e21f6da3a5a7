package receipt

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// RenderPDF lays out a receipt on one A4 page.
func RenderPDF(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt "+doc.Number, false)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, doc.Business.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if doc.Business.Address != "" {
		pdf.CellFormat(0, 5, doc.Business.Address, "", 1, "L", false, 0, "")
	}
	if doc.Business.Phone != "" {
		pdf.CellFormat(0, 5, "Tel: "+doc.Business.Phone, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 7, "RECEIPT "+doc.Number, "", 1, "L", false, 0, "")
	if doc.Voided() {
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(0, 7, "VOID: "+doc.VoidReason, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, "Issued: "+doc.IssuedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if doc.ReissuedFrom != "" {
		pdf.CellFormat(0, 5, "Replaces receipt "+doc.ReissuedFrom, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Sale #%d on %s", doc.SaleID, doc.SaleDate.Format(dateLayout)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Customer: "+doc.CustomerName, "", 1, "L", false, 0, "")
	if doc.CustomerPhone != "" {
		pdf.CellFormat(0, 5, "Phone: "+doc.CustomerPhone, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{80, 30, 35, 35}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Item", "Qty (kg)", "Price/kg", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range doc.Lines {
		pdf.CellFormat(widths[0], 6, l.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, l.QuantityKg.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, money(l.PricePerKg), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, money(l.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(2)

	total := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(widths[0]+widths[1]+widths[2], 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, value, "", 1, "R", false, 0, "")
	}
	total("Subtotal", money(doc.Subtotal), false)
	if doc.DiscountAmount.IsPositive() {
		total(fmt.Sprintf("Discount (%s%%)", doc.DiscountPct.String()), "-"+money(doc.DiscountAmount), false)
	}
	if doc.DeliveryFee.IsPositive() {
		total("Delivery", money(doc.DeliveryFee), false)
	}
	total("Total", money(doc.Total), true)
	if doc.IsCredit {
		total("Paid", money(doc.Paid), false)
		total("Balance due", money(doc.Outstanding), true)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", doc.Number, err)
	}
	return buf.Bytes(), nil
}
