// Package report renders job history as spreadsheets.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"reelmate/internal/domain"
	"reelmate/internal/pricing"
)

const jobsSheet = "Jobs"

var jobHeaders = []string{
	"Job ID",
	"User",
	"Campaign",
	"Type",
	"Quality",
	"Status",
	"Created",
	"Completed",
	"Duration (s)",
	"Cost (USD)",
	"Video URL",
	"Error",
}

// JobsXLSX returns an XLSX workbook listing jobs with a cost total row.
// Only completed jobs carry a cost.
func JobsXLSX(jobs []domain.GenerationJob) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", jobsSheet); err != nil {
		return nil, err
	}
	for i, h := range jobHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(jobsSheet, cell, h)
	}

	var total float64
	row := 2
	for _, j := range jobs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(jobsSheet, cell, v)
		}
		write(1, j.ID)
		write(2, j.UserID)
		write(3, j.CampaignID)
		write(4, string(j.Type))
		write(5, string(j.GenerationSettings.Quality))
		write(6, string(j.Status))
		write(7, j.CreatedAt.UTC().Format(time.RFC3339))
		if j.ProcessingCompletedAt != nil {
			write(8, j.ProcessingCompletedAt.UTC().Format(time.RFC3339))
		}
		if j.Output != nil {
			write(9, j.Output.DurationSeconds)
			write(10, pricing.Round(j.Output.Cost))
			write(11, j.Output.VideoURL)
			total += j.Output.Cost
		}
		if j.ErrorMessage != nil {
			write(12, *j.ErrorMessage)
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(9, row)
	totalCell, _ := excelize.CoordinatesToCellName(10, row)
	_ = f.SetCellValue(jobsSheet, totalLabel, "Total")
	_ = f.SetCellValue(jobsSheet, totalCell, pricing.Round(total))

	_ = f.SetColWidth(jobsSheet, "A", "A", 38)
	_ = f.SetColWidth(jobsSheet, "B", "C", 18)
	_ = f.SetColWidth(jobsSheet, "G", "H", 22)
	_ = f.SetColWidth(jobsSheet, "K", "K", 60)
	_ = f.SetColWidth(jobsSheet, "L", "L", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
