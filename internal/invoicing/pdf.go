package invoicing

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF writes a printable rendition of the invoice to w.
func RenderPDF(w io.Writer, inv Invoice) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Invoice #%d", inv.InvoiceID))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, "Customer: "+inv.CustomerName)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date: "+inv.InvoiceDate.Format(dateLayout))
	pdf.Ln(7)
	if inv.Notes != nil && *inv.Notes != "" {
		pdf.Cell(0, 7, "Notes: "+*inv.Notes)
		pdf.Ln(7)
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(35, 8, "SKU", "1", 0, "L", false, 0, "")
	pdf.CellFormat(70, 8, "Model", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Unit Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Line Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, line := range inv.Lines {
		pdf.CellFormat(35, 8, line.SKU, "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 8, line.ModelName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", line.QuantitySold), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, line.UnitPriceUAH.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, line.LineTotal.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(155, 10, "Total (UAH)", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 10, inv.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")

	return pdf.Output(w)
}
