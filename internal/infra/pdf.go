package infra

// pdf.go — Batch report export using go-pdf/fpdf.
// Renders one table section per preparation date with a totals footer.

import (
	"bytes"
	"fmt"

	"github.com/jusondac/factory-app/internal/dto"

	"github.com/go-pdf/fpdf"
)

// GenerateReportPDF renders a report as an A4 landscape PDF and returns the
// document bytes.
func GenerateReportPDF(report *dto.ReportResponse) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20 // total margins = 20mm

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Batch Production Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	window := "All dates"
	if report.StartDate != "" || report.EndDate != "" {
		window = fmt.Sprintf("%s to %s", orDash(report.StartDate), orDash(report.EndDate))
	}
	pdf.CellFormat(contentW, 5, window, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	cols := []struct {
		label string
		frac  float64
	}{
		{"Unit ID", 0.12},
		{"Batch Code", 0.16},
		{"Product", 0.16},
		{"Status", 0.09},
		{"Qty", 0.06},
		{"Produce", 0.10},
		{"Package", 0.10},
		{"Waste", 0.06},
		{"Waste %", 0.07},
		{"Expiry", 0.08},
	}

	for _, group := range report.Groups {
		// ── Group heading ─────────────────────────────────────────────────────
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 7, "Prepared "+group.Date, "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 8)
		for i, col := range cols {
			ln := 0
			if i == len(cols)-1 {
				ln = 1
			}
			pdf.CellFormat(contentW*col.frac, 6, col.label, "B", ln, "L", false, 0, "")
		}

		pdf.SetFont("Helvetica", "", 8)
		for _, row := range group.Rows {
			cells := []string{
				row.UnitID,
				orDash(row.BatchCode),
				truncate(row.ProductName, 24),
				row.BatchStatus,
				fmt.Sprintf("%d", row.Quantity),
				orDash(row.ProduceStatus),
				orDash(row.PackageStatus),
				fmt.Sprintf("%d", row.WasteQuantity),
				orDash(row.WastePct),
				orDash(row.ExpiryDate),
			}
			for i, cell := range cells {
				ln := 0
				if i == len(cells)-1 {
					ln = 1
				}
				pdf.CellFormat(contentW*cols[i].frac, 5, cell, "", ln, "L", false, 0, "")
			}
		}
		pdf.Ln(3)
	}

	// ── Totals ────────────────────────────────────────────────────────────────
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5,
		fmt.Sprintf("Batches: %d    Quantity: %d    Waste: %d    Yield: %s",
			report.TotalBatches, report.TotalQuantity, report.TotalWaste, orDash(report.YieldPct)),
		"", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render report: %w", err)
	}
	return buf.Bytes(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
