// Package invoice renders order invoices as PDF documents.
package invoice

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

// PDFRenderer implements ports.InvoiceRenderer with the core PDF fonts.
type PDFRenderer struct {
	storeName string
	currency  string
}

var _ ports.InvoiceRenderer = (*PDFRenderer)(nil)

func NewPDFRenderer(storeName, currency string) *PDFRenderer {
	return &PDFRenderer{storeName: storeName, currency: currency}
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Product", 90, "L"},
	{"Qty", 20, "R"},
	{"Unit price", 35, "R"},
	{"Amount", 35, "R"},
}

func (r *PDFRenderer) Render(order *domain.Order, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %s", order.ID), false)
	pdf.SetCreator(r.storeName, false)
	pdf.SetCreationDate(order.CreatedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(r.storeName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "INVOICE", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	meta := [][2]string{
		{"Order", order.ID},
		{"Date", order.CreatedAt.UTC().Format(time.DateOnly)},
		{"Status", string(order.Status)},
		{"Payment", order.PaymentID},
	}
	if order.User != nil {
		meta = append(meta, [2]string{"Customer", fmt.Sprintf("%s <%s>", order.User.Name, order.User.Email)})
	}
	for _, kv := range meta {
		pdf.CellFormat(30, 6, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(30, 6, "Ship to:", "", 0, "L", false, 0, "")
	pdf.MultiCell(0, 6, tr(order.ShippingAddress), "", "L", false)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for _, col := range columns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range order.Items {
		name := it.ProductID
		if it.Product != nil {
			name = it.Product.Name
		}
		cells := []string{
			tr(name),
			fmt.Sprintf("%d", it.Quantity),
			it.Price.StringFixed(2),
			it.LineTotal().StringFixed(2),
		}
		for i, col := range columns {
			pdf.CellFormat(col.width, 7, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 11)
	labelWidth := columns[0].width + columns[1].width + columns[2].width
	pdf.CellFormat(labelWidth, 8, fmt.Sprintf("Total (%s)", r.currency), "1", 0, "R", false, 0, "")
	pdf.CellFormat(columns[3].width, 8, order.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("invoice: %w", err)
	}
	return pdf.Output(w)
}
