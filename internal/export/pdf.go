package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"fleetops/incident-portal/incident-portal-backend/internal/analytics"
)

// PDFFleetSummary renders a one-page managerial summary of the fleet
// report: headline numbers, top states, recommendations.
func PDFFleetSummary(report analytics.FleetReport, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Fleet Incident Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Fleet Incident Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Window: %s to %s",
		report.Window.Start.Format("2006-01-02"),
		report.Window.End.Format("2006-01-02")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	lines := []string{
		fmt.Sprintf("Total cases: %d", report.TotalCases),
		fmt.Sprintf("Completed cases: %d", report.CompletedCases),
		fmt.Sprintf("Active cases: %d", report.ActiveCases),
		fmt.Sprintf("Average completion: %.1f hours", report.AverageCompletionSeconds/3600),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Status Performance", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	widths := []float64{55, 30, 25, 30, 30}
	headers := []string{"State", "Total Hours", "Occurrences", "Avg Hours", "% of Fleet"}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	fill := false
	pdf.SetFillColor(235, 239, 247)
	for _, b := range report.StatusPerformance {
		cells := []string{
			b.Label,
			fmt.Sprintf("%.1f", b.TotalSeconds/3600),
			fmt.Sprintf("%d", b.Occurrences),
			fmt.Sprintf("%.1f", b.AverageSeconds/3600),
			fmt.Sprintf("%.1f%%", b.PercentOfTotal),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}
	pdf.Ln(4)

	if len(report.Recommendations) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Recommendations", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, rec := range report.Recommendations {
			pdf.MultiCell(0, 6, fmt.Sprintf("- %s", rec.Message), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}
