// Package invoice renders an order as a printable PDF note.
package invoice

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"mostrador/internal/domain"
)

const (
	colProduct  = 80.0
	colQuantity = 22.0
	colUnit     = 18.0
	colPrice    = 30.0
	colSubtotal = 30.0
	lineHeight  = 7.0
)

type Renderer struct {
	location *time.Location
}

func NewRenderer(location *time.Location) *Renderer {
	if location == nil {
		location = time.UTC
	}
	return &Renderer{location: location}
}

// Render writes the order, its lines and the total to w. Items must be loaded.
func (r *Renderer) Render(w io.Writer, order domain.Order) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(order.Folio, true)
	pdf.SetCreator("mostrador", true)
	pdf.SetCreationDate(order.CreatedAt)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Nota de venta "+order.Folio), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	r.field(pdf, tr, "Cliente", order.CustomerName)
	r.field(pdf, tr, "Fecha", order.CreatedAt.In(r.location).Format("02/01/2006 15:04"))
	r.field(pdf, tr, "Atendido por", order.CreatedBy)
	r.field(pdf, tr, "Estado", order.Status)
	if order.DeliveredAt != nil {
		r.field(pdf, tr, "Entregado", order.DeliveredAt.In(r.location).Format("02/01/2006 15:04"))
	}
	if order.DeliveredPlace != nil {
		r.field(pdf, tr, "Lugar de entrega", *order.DeliveredPlace)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(colProduct, lineHeight, "Producto", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colQuantity, lineHeight, "Cantidad", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colUnit, lineHeight, "Unidad", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colPrice, lineHeight, "Precio", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colSubtotal, lineHeight, "Importe", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.Items {
		pdf.CellFormat(colProduct, lineHeight, tr(item.ProductName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colQuantity, lineHeight, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colUnit, lineHeight, tr(item.Unit), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colPrice, lineHeight, "$"+item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colSubtotal, lineHeight, "$"+item.Subtotal().StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(colProduct+colQuantity+colUnit+colPrice, lineHeight, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(colSubtotal, lineHeight, "$"+order.Total().StringFixed(2), "1", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering invoice for order %d: %w", order.ID, err)
	}
	return nil
}

func (r *Renderer) field(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 6, tr(label+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}
