package ndvi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smukkama/phenocover/internal/phenology"
)

// ErrNoObservations is returned when a file holds no usable NDVI row
var ErrNoObservations = errors.New("no valid NDVI observations")

var (
	dateColumns  = []string{"date", "timestamp", "time"}
	valueColumns = []string{"ndvi", "ndvi_value", "value"}
	dateLayouts  = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}
)

// ReadCSV loads the NDVI observation table of a field
func ReadCSV(path string) ([]phenology.Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open NDVI file: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read parses NDVI observations from CSV. Rows that cannot be parsed are logged and skipped.
func Read(r io.Reader) ([]phenology.Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	dateIdx, ok := findColumn(colMap, dateColumns)
	if !ok {
		return nil, fmt.Errorf("missing date column (expected one of %v)", dateColumns)
	}
	valueIdx, ok := findColumn(colMap, valueColumns)
	if !ok {
		return nil, fmt.Errorf("missing NDVI column (expected one of %v)", valueColumns)
	}

	var obs []phenology.Observation
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("Skipping NDVI line %d: %v", line, err)
			continue
		}

		o, err := parseRow(row, dateIdx, valueIdx)
		if err != nil {
			log.Printf("Skipping NDVI line %d: %v", line, err)
			continue
		}
		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, ErrNoObservations
	}
	return obs, nil
}

func findColumn(colMap map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := colMap[name]; ok {
			return idx, true
		}
	}
	return 0, false
}

func parseRow(row []string, dateIdx, valueIdx int) (phenology.Observation, error) {
	if dateIdx >= len(row) || valueIdx >= len(row) {
		return phenology.Observation{}, fmt.Errorf("short row with %d fields", len(row))
	}

	ts, err := parseDate(strings.TrimSpace(row[dateIdx]))
	if err != nil {
		return phenology.Observation{}, err
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(row[valueIdx]), 64)
	if err != nil {
		return phenology.Observation{}, fmt.Errorf("invalid ndvi: %w", err)
	}

	return phenology.Observation{Timestamp: ts, NDVI: value}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
