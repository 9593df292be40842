package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/smukkama/phenocover/internal/phenology"
)

// WriteCSV writes one row per day of the season
func WriteCSV(w io.Writer, res *phenology.Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(DailyColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(DailyColumns))
	for _, d := range res.Days {
		for i, val := range dailyRow(d) {
			record[i] = formatValue(val)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %s: %w", d.Date.Format(dateLayout), err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the daily table to a file
func SaveCSV(path string, res *phenology.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	if err := WriteCSV(file, res); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
