package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"fleetops/incident-portal/incident-portal-backend/internal/analytics"
)

// statusColumns is the stable column contract for status performance
// rows across Excel and CSV output.
var statusColumns = []string{
	"State", "Total Hours", "Occurrences", "Avg Hours", "Min Hours", "Max Hours", "% of Fleet Time",
}

// ExcelFleetReport renders a FleetReport as a two-sheet workbook:
// a summary sheet with headline numbers and recommendations, and a
// status performance sheet with one row per state.
func ExcelFleetReport(report analytics.FleetReport, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	const statusSheet = "Status Performance"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(statusSheet); err != nil {
		return fmt.Errorf("failed to create status sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	// Summary sheet
	summary := [][]interface{}{
		{"Fleet Incident Report", ""},
		{"Generated At", report.GeneratedAt.Format(time.RFC3339)},
		{"Window Start", report.Window.Start.Format(time.RFC3339)},
		{"Window End", report.Window.End.Format(time.RFC3339)},
		{"Total Cases", report.TotalCases},
		{"Completed Cases", report.CompletedCases},
		{"Active Cases", report.ActiveCases},
		{"Average Completion (hours)", report.AverageCompletionSeconds / 3600},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	recRow := len(summary) + 2
	cell, _ := excelize.CoordinatesToCellName(1, recRow)
	f.SetCellValue(summarySheet, cell, "Recommendations")
	f.SetCellStyle(summarySheet, cell, cell, headerStyle)
	for i, rec := range report.Recommendations {
		cell, _ := excelize.CoordinatesToCellName(1, recRow+1+i)
		f.SetCellValue(summarySheet, cell, fmt.Sprintf("[%s] %s", rec.Type, rec.Message))
	}
	f.SetColWidth(summarySheet, "A", "A", 50)
	f.SetColWidth(summarySheet, "B", "B", 25)

	// Status performance sheet
	for i, col := range statusColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(statusSheet, cell, col)
		f.SetCellStyle(statusSheet, cell, cell, headerStyle)
	}
	for rowIdx, b := range report.StatusPerformance {
		row := []interface{}{
			b.Label,
			b.TotalSeconds / 3600,
			b.Occurrences,
			b.AverageSeconds / 3600,
			b.MinSeconds / 3600,
			b.MaxSeconds / 3600,
			b.PercentOfTotal,
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetSheetRow(statusSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write status row: %w", err)
		}
	}
	f.SetPanes(statusSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	lastCol, _ := excelize.ColumnNumberToName(len(statusColumns))
	f.AutoFilter(statusSheet, "A1:"+lastCol+"1", nil)
	f.SetColWidth(statusSheet, "A", lastCol, 18)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
