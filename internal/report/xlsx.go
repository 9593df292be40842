package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/smukkama/phenocover/internal/phenology"
)

const (
	sheetDaily   = "Daily"
	sheetStages  = "Stages"
	sheetSummary = "Summary"
)

// WriteXLSX saves a workbook with the daily table, the stage transitions and the summary
func WriteXLSX(path string, res *phenology.Result) error {
	file, err := NewWorkbook(res)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// NewWorkbook builds the report workbook in memory
func NewWorkbook(res *phenology.Result) (*excelize.File, error) {
	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", sheetDaily); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{sheetStages, sheetSummary} {
		if _, err := file.NewSheet(name); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	styles, err := newStyles(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	daily := make([][]interface{}, len(res.Days))
	for i, d := range res.Days {
		daily[i] = dailyRow(d)
	}
	stages := make([][]interface{}, len(res.Transitions))
	for i, t := range res.Transitions {
		stages[i] = stageRow(t, res.SowingDate)
	}

	for _, table := range []struct {
		sheet   string
		columns []string
		rows    [][]interface{}
	}{
		{sheetDaily, DailyColumns, daily},
		{sheetStages, StageColumns, stages},
		{sheetSummary, []string{"metric", "value"}, summaryRows(res)},
	} {
		if err := writeTable(file, styles, table.sheet, table.columns, table.rows); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write sheet %s: %w", table.sheet, err)
		}
	}

	return file, nil
}

type workbookStyles struct {
	header int
	date   int
	number int
}

func newStyles(file *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error

	s.header, err = file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4E7D3A"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}

	dateFormat := "yyyy-mm-dd"
	if s.date, err = file.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat}); err != nil {
		return s, fmt.Errorf("failed to create date style: %w", err)
	}

	numberFormat := "0.0000"
	if s.number, err = file.NewStyle(&excelize.Style{CustomNumFmt: &numberFormat}); err != nil {
		return s, fmt.Errorf("failed to create number style: %w", err)
	}

	return s, nil
}

func writeTable(file *excelize.File, styles workbookStyles, sheet string, columns []string, rows [][]interface{}) error {
	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := file.SetCellStyle(sheet, "A1", last, styles.header); err != nil {
		return err
	}

	for r, row := range rows {
		start, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := file.SetSheetRow(sheet, start, &row); err != nil {
			return err
		}
		for c, val := range row {
			style := 0
			switch val.(type) {
			case float64:
				style = styles.number
			case time.Time:
				style = styles.date
			}
			if style == 0 {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := file.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	if err := file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if len(rows) > 0 {
		if err := file.AutoFilter(sheet, "A1:"+last, nil); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	return file.SetColWidth(sheet, "A", lastCol, 14)
}
