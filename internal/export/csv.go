package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"fleetops/incident-portal/incident-portal-backend/internal/analytics"
)

// CSVStatusPerformance writes the fleet-wide status performance table
// as CSV with the same column contract as the Excel export.
func CSVStatusPerformance(report analytics.FleetReport, w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(statusColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, b := range report.StatusPerformance {
		record := []string{
			b.Label,
			strconv.FormatFloat(b.TotalSeconds/3600, 'f', 2, 64),
			strconv.Itoa(b.Occurrences),
			strconv.FormatFloat(b.AverageSeconds/3600, 'f', 2, 64),
			strconv.FormatFloat(b.MinSeconds/3600, 'f', 2, 64),
			strconv.FormatFloat(b.MaxSeconds/3600, 'f', 2, 64),
			strconv.FormatFloat(b.PercentOfTotal, 'f', 1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// CSVCaseBreakdown writes one case's duration breakdown as CSV.
func CSVCaseBreakdown(analysis analytics.CaseAnalysis, w io.Writer) error {
	writer := csv.NewWriter(w)

	header := []string{"State", "Total Seconds", "Live Seconds", "Occurrences", "Avg Seconds", "Min Seconds", "Max Seconds", "% of Total"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, b := range analysis.Breakdown {
		record := []string{
			b.Label,
			strconv.FormatFloat(b.TotalSeconds, 'f', 1, 64),
			strconv.FormatFloat(b.LiveSeconds, 'f', 1, 64),
			strconv.Itoa(b.Occurrences),
			strconv.FormatFloat(b.AverageSeconds, 'f', 1, 64),
			strconv.FormatFloat(b.MinSeconds, 'f', 1, 64),
			strconv.FormatFloat(b.MaxSeconds, 'f', 1, 64),
			strconv.FormatFloat(b.PercentOfTotal, 'f', 1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
