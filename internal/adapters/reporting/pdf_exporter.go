package reporting

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/lcalzada-xor/blemap/internal/core/domain"
)

// SessionSummary is the material the exporter renders: the session bracket,
// how many sightings it recorded and its tick reports.
type SessionSummary struct {
	Session          domain.Session
	TransactionCount int64
	Reports          []domain.Report
}

// PDFExporter renders a session summary to PDF.
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export generates the summary PDF as bytes.
func (e *PDFExporter) Export(summary SessionSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, summary)
	e.addTotals(pdf, summary)
	e.addReportTable(pdf, summary.Reports)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToFile writes the summary PDF to path.
func (e *PDFExporter) ExportToFile(path string, summary SessionSummary) error {
	data, err := e.Export(summary)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, summary SessionSummary) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 15, "Presence Session Summary", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Session: %s", summary.Session.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Started: %s", summary.Session.StartedAt.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	if summary.Session.EndedAt != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Ended: %s", summary.Session.EndedAt.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addTotals(pdf *gofpdf.Fpdf, summary SessionSummary) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, "Totals", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Sighting transactions: %d", summary.TransactionCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Tick reports: %d", len(summary.Reports)), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

func (e *PDFExporter) addReportTable(pdf *gofpdf.Fpdf, reports []domain.Report) {
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Tick Reports", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(60, 7, "Timestamp", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Raw active", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, "Logical devices", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	// Cap the table at the last 40 rows so long runs stay on a few pages.
	start := 0
	if len(reports) > 40 {
		start = len(reports) - 40
	}
	for _, r := range reports[start:] {
		pdf.CellFormat(60, 6, r.Timestamp.Format("2006-01-02 15:04:05"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", r.RawActiveCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", r.LogicalDeviceCount), "1", 1, "R", false, 0, "")
	}
}
