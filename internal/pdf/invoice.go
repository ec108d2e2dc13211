// Package pdf renders client invoices.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/techvilo/crm-api/internal/domain"
)

// InvoiceData carries everything the invoice renders. Amounts come from the
// client's stored figures so the PDF always matches the dashboard.
type InvoiceData struct {
	Client   *domain.Client
	Projects []domain.Project
	Payments []domain.Transaction
	IssuedAt time.Time
}

// InvoiceNumber builds the printed invoice reference for a client
func InvoiceNumber(clientID fmt.Stringer, issuedAt time.Time) string {
	id := clientID.String()
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("INV-%s-%s", issuedAt.Format("20060102"), id)
}

// RenderInvoice produces the invoice PDF as bytes
func RenderInvoice(data *InvoiceData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, "INVOICE")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice no: %s", InvoiceNumber(data.Client.ID, data.IssuedAt)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", data.IssuedAt.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, data.Client.Name)
	pdf.Ln(6)
	if data.Client.CompanyName != "" {
		pdf.Cell(0, 6, data.Client.CompanyName)
		pdf.Ln(6)
	}
	pdf.Ln(6)

	if len(data.Projects) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Projects")
		pdf.Ln(8)

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(90, 7, "Project", "1", 0, "L", true, 0, "")
		pdf.CellFormat(45, 7, "Status", "1", 0, "L", true, 0, "")
		pdf.CellFormat(45, 7, "Progress", "1", 1, "R", true, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for _, p := range data.Projects {
			pdf.CellFormat(90, 7, p.Name, "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 7, string(p.Status), "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 7, fmt.Sprintf("%d%%", p.ProgressPercentage), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	if len(data.Payments) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Payments received")
		pdf.Ln(8)

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(45, 7, "Date", "1", 0, "L", true, 0, "")
		pdf.CellFormat(90, 7, "Description", "1", 0, "L", true, 0, "")
		pdf.CellFormat(45, 7, "Amount", "1", 1, "R", true, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for _, t := range data.Payments {
			pdf.CellFormat(45, 7, t.Date.Format("2006-01-02"), "1", 0, "L", false, 0, "")
			pdf.CellFormat(90, 7, t.Description, "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 7, fmt.Sprintf("%.2f", t.Amount), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(135, 8, "Total payable", "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 8, fmt.Sprintf("%.2f", data.Client.TotalPayable), "1", 1, "R", false, 0, "")
	pdf.CellFormat(135, 8, "Paid to date", "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 8, fmt.Sprintf("%.2f", data.Client.PaidAmount), "1", 1, "R", false, 0, "")
	pdf.CellFormat(135, 8, "Amount due", "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 8, fmt.Sprintf("%.2f", data.Client.DueAmount()), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
