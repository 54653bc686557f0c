package infra

// pdf.go — Receipt generation using go-pdf/fpdf.
// Renders A7-size thermal receipt-style tickets with:
//   - Restaurant name header
//   - Order number and timestamp
//   - Item table (name, quantity, line total)
//   - Tax and discount lines
//   - Bold total
//   - Payment status / method footer

import (
	"bytes"
	"fmt"

	"platepos/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// RenderReceipt renders the order receipt and returns the PDF bytes.
func RenderReceipt(order *model.Order, restaurantName string) ([]byte, error) {
	// A7 ≈ 74mm × 105mm — close to thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8 // total margins = 8mm

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, restaurantName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Order Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Order info ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Order %s", order.OrderNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, order.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// ── Items ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	for _, item := range order.Items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		pdf.CellFormat(contentW*0.55, 4, item.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.15, 4, fmt.Sprintf("x%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(contentW*0.30, 4, line.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(1)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.CellFormat(contentW*0.70, 4, "Subtotal", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.30, 4, order.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(contentW*0.70, 4, "Tax", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.30, 4, order.Tax.StringFixed(2), "", 1, "R", false, 0, "")
	if !order.Discount.IsZero() {
		pdf.CellFormat(contentW*0.70, 4, "Discount", "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.30, 4, "-"+order.Discount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW*0.70, 6, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.30, 6, order.Total.StringFixed(2), "", 1, "R", false, 0, "")

	// ── Payment footer ───────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	payment := string(order.PaymentStatus)
	if order.PaymentMethod != nil {
		payment += " / " + *order.PaymentMethod
	}
	pdf.CellFormat(contentW, 4, "Payment: "+payment, "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
