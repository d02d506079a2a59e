// internal/app/features/teams/export.go
package teams

import (
	"fmt"
	"time"

	"github.com/dalemusser/hackreg/internal/domain/models"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheet    = "Teams"
	exportFilename = "teams.xlsx"
	exportMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTime     = "2006-01-02 15:04:05"
)

type exportColumn struct {
	header string
	width  float64
	value  func(t models.Team) string
}

func member(t models.Team, i int) models.Member {
	if i < len(t.Members) {
		return t.Members[i]
	}
	return models.Member{}
}

var exportColumns = []exportColumn{
	{"Team Name", 20, func(t models.Team) string { return t.TeamName }},
	{"Leader Name", 20, func(t models.Team) string { return t.Leader.Name }},
	{"Leader Reg No", 15, func(t models.Team) string { return t.Leader.RegNo }},
	{"Leader Email", 30, func(t models.Team) string { return t.Leader.Email }},
	{"Member 1 Name", 20, func(t models.Team) string { return member(t, 0).Name }},
	{"Member 1 Reg No", 15, func(t models.Team) string { return member(t, 0).RegNo }},
	{"Member 1 Email", 30, func(t models.Team) string { return member(t, 0).Email }},
	{"Member 2 Name", 20, func(t models.Team) string { return member(t, 1).Name }},
	{"Member 2 Reg No", 15, func(t models.Team) string { return member(t, 1).RegNo }},
	{"Member 2 Email", 30, func(t models.Team) string { return member(t, 1).Email }},
	{"Status", 15, func(t models.Team) string { return t.Status }},
	{"Created At", 20, func(t models.Team) string { return t.CreatedAt.In(time.UTC).Format(exportTime) }},
}

// BuildWorkbook lays teams out one per row under a bold, shaded header.
// The caller must Close the returned file.
func BuildWorkbook(teams []models.Team) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(exportColumns))
	for i, c := range exportColumns {
		header[i] = c.header
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for r, t := range teams {
		row := make([]interface{}, len(exportColumns))
		for i, c := range exportColumns {
			row[i] = c.value(t)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := styleHeader(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func styleHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	for i, c := range exportColumns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, col, col, c.width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}
	return nil
}
