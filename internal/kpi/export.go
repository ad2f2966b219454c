package kpi

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const teamSheet = "Team"

var exportColumns = []struct {
	title string
	name  string
}{
	{"Anrufe", "calls_made"},
	{"Angenommen", "calls_answered"},
	{"Pickup-Rate", "pickup_rate"},
	{"Ersttermine", "first_appointments_set"},
	{"Ersttermin-Rate", "first_appt_rate"},
	{"Zweittermine", "second_appointments_set"},
	{"Zweittermin-Rate", "second_appt_rate"},
	{"Abschlüsse", "closings"},
	{"Units", "units_total"},
	{"Ø Units", "avg_units_per_closing"},
}

// WriteTeamXLSX writes one row per member plus a totals row.
func WriteTeamXLSX(w io.Writer, team TeamKPIs) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", teamSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	pct, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return fmt.Errorf("percent style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	header := []any{"Vorname", "Nachname"}
	for _, c := range exportColumns {
		header = append(header, c.title)
	}
	if err := f.SetSheetRow(teamSheet, "A1", &header); err != nil {
		return err
	}

	writeRow := func(row int, first, last string, k UserKPIs) error {
		values := []any{first, last}
		for _, c := range exportColumns {
			v, _ := k.Value(c.name)
			values = append(values, v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		return f.SetSheetRow(teamSheet, cell, &values)
	}

	row := 2
	for _, m := range team.Members {
		if err := writeRow(row, m.FirstName, m.LastName, m.KPIs); err != nil {
			return err
		}
		row++
	}
	if err := writeRow(row, "Gesamt", team.TeamName, team.Aggregated); err != nil {
		return err
	}

	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(teamSheet, "A1", last, bold); err != nil {
		return err
	}
	for i, c := range exportColumns {
		if KindOf(c.name) != KindPercent {
			continue
		}
		col, _ := excelize.ColumnNumberToName(i + 3)
		if err := f.SetCellStyle(teamSheet, col+"2", fmt.Sprintf("%s%d", col, row), pct); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
