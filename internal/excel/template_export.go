package excel

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"gymcoach/internal/models"
)

// Excel sheet names
const (
	SheetTemplate = "Template"
	SheetVolume   = "Volume"
	SheetWarmup   = "Warmup"
)

var templateHeaders = []string{"#", "Exercise", "Sets", "Reps", "Range", "Rest, s", "Unit", "Set type", "Progression"}

// ExportTemplate сохраняет шаблон и планы разминки в XLSX
func ExportTemplate(path string, tmpl *models.GeneratedTemplate, warmups []*models.WarmupPlan) error {
	f, err := BuildWorkbook(tmpl, warmups)
	if err != nil {
		return err
	}
	defer f.Close()

	if filepath.Ext(path) == "" {
		path += ".xlsx"
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("ошибка сохранения %s: %w", path, err)
	}
	return nil
}

// BuildWorkbook собирает книгу: шаблон, объём по группам и по листу на каждую разминку
func BuildWorkbook(tmpl *models.GeneratedTemplate, warmups []*models.WarmupPlan) (*excelize.File, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("шаблон не задан")
	}
	f := excelize.NewFile()

	f.SetSheetName("Sheet1", SheetTemplate)
	if err := createTemplateSheet(f, tmpl); err != nil {
		return nil, fmt.Errorf("ошибка создания листа шаблона: %w", err)
	}

	if _, err := f.NewSheet(SheetVolume); err != nil {
		return nil, err
	}
	if err := createVolumeSheet(f, tmpl.Allocations); err != nil {
		return nil, fmt.Errorf("ошибка создания листа объёма: %w", err)
	}

	for i, plan := range warmups {
		if plan == nil {
			continue
		}
		sheet := warmupSheetName(i)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := createWarmupSheet(f, sheet, plan); err != nil {
			return nil, fmt.Errorf("ошибка создания листа разминки: %w", err)
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func warmupSheetName(i int) string {
	if i == 0 {
		return SheetWarmup
	}
	return fmt.Sprintf("%s %d", SheetWarmup, i+1)
}

func headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	return style
}

func titleStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2E75B6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	return style
}

// writeRow пишет значения в строку начиная с колонки A
func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, row, values...); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), row)
	return f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), last, headerStyle(f))
}

// createTemplateSheet - описание шаблона и таблица упражнений
func createTemplateSheet(f *excelize.File, tmpl *models.GeneratedTemplate) error {
	sheet := SheetTemplate
	meta := tmpl.Template

	f.SetCellValue(sheet, "A1", meta.Name)
	f.MergeCell(sheet, "A1", "I1")
	f.SetCellStyle(sheet, "A1", "I1", titleStyle(f))
	f.SetRowHeight(sheet, 1, 28)

	info := [][]any{
		{"Description", meta.Description},
		{"Difficulty", meta.Difficulty},
		{"Duration, min", meta.EstimatedDurationMinutes},
		{"Notes", meta.Notes},
	}
	for i, row := range info {
		if err := writeRow(f, sheet, i+2, row...); err != nil {
			return err
		}
	}

	const tableRow = 7
	if err := writeHeader(f, sheet, tableRow, templateHeaders); err != nil {
		return err
	}
	for i, ex := range tmpl.Exercises {
		name := ex.ExerciseName
		if name == "" {
			name = ex.ExerciseID
		}
		err := writeRow(f, sheet, tableRow+1+i,
			ex.OrderIndex,
			name,
			ex.DefaultSets,
			ex.TargetReps,
			fmt.Sprintf("%d-%d", ex.RepRangeMin, ex.RepRangeMax),
			ex.RestSeconds,
			ex.WeightUnit,
			ex.SetType,
			ex.ProgressionPolicy,
		)
		if err != nil {
			return err
		}
	}

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 32)
	f.SetColWidth(sheet, "C", "H", 10)
	f.SetColWidth(sheet, "I", "I", 20)
	return nil
}

// createVolumeSheet - недельный объём по мышечным группам
func createVolumeSheet(f *excelize.File, allocations []models.VolumeAllocation) error {
	sheet := SheetVolume
	if err := writeHeader(f, sheet, 1, []string{"Muscle group", "Weekly sets", "Priority", "Sets / session"}); err != nil {
		return err
	}
	for i, a := range allocations {
		if err := writeRow(f, sheet, i+2, a.MuscleGroupID, a.WeeklySetTarget, a.PriorityMultiplier, a.SetsPerSession); err != nil {
			return err
		}
	}
	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "D", 14)
	return nil
}

// createWarmupSheet - подходы разминки к одному упражнению
func createWarmupSheet(f *excelize.File, sheet string, plan *models.WarmupPlan) error {
	f.SetCellValue(sheet, "A1", fmt.Sprintf("Warmup: %s", plan.ExerciseID))
	f.MergeCell(sheet, "A1", "E1")
	f.SetCellStyle(sheet, "A1", "E1", titleStyle(f))

	if err := writeRow(f, sheet, 2, "Working set", fmt.Sprintf("%g kg x %d", plan.WorkingWeight, plan.WorkingReps)); err != nil {
		return err
	}
	if err := writeRow(f, sheet, 3, "Total, s", plan.TotalDuration); err != nil {
		return err
	}

	const tableRow = 5
	if err := writeHeader(f, sheet, tableRow, []string{"Set", "Weight", "Reps", "Rest, s", "Intensity"}); err != nil {
		return err
	}
	for i, s := range plan.Sets {
		if err := writeRow(f, sheet, tableRow+1+i, s.SetIndex, s.Weight, s.Reps, s.RestSeconds, fmt.Sprintf("%.0f%%", s.Intensity*100)); err != nil {
			return err
		}
	}

	row := tableRow + len(plan.Sets) + 2
	for _, note := range plan.Adaptations {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), note)
		row++
	}
	f.SetColWidth(sheet, "A", "A", 16)
	f.SetColWidth(sheet, "B", "E", 12)
	return nil
}
