package report

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/smukkama/phenocover/internal/phenology"
)

func sampleResult(t *testing.T) *phenology.Result {
	t.Helper()
	sowing := time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)
	harvest := sowing.AddDate(0, 0, 45)

	weather := make([]phenology.WeatherRecord, 46)
	for i := range weather {
		weather[i] = phenology.WeatherRecord{
			Date:            sowing.AddDate(0, 0, i),
			TemperatureMean: 16,
			TemperatureMin:  9,
			TemperatureMax:  float64(20 + i%15),
			Precipitation:   float64(i%4) * 0.8,
		}
	}
	obs := []phenology.Observation{
		{Timestamp: sowing.AddDate(0, 0, 3), NDVI: 0.2},
		{Timestamp: sowing.AddDate(0, 0, 25), NDVI: 0.55},
		{Timestamp: sowing.AddDate(0, 0, 40), NDVI: 0.48},
	}

	res, err := phenology.Analyze(weather, obs, phenology.Options{
		Sowing:  sowing,
		Harvest: harvest,
		Params:  phenology.DefaultParams(),
	})
	require.NoError(t, err)
	return res
}

func TestWriteCSV(t *testing.T) {
	res := sampleResult(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(res.Days)+1)
	assert.Equal(t, DailyColumns, rows[0])

	first := rows[1]
	assert.Equal(t, "2024-10-01", first[0])
	assert.Equal(t, formatValue(res.Days[0].NDVI), first[1])
	assert.Equal(t, res.Days[0].GrowthStage, first[12])
	assert.Equal(t, "16.0000", first[17])

	last := rows[len(rows)-1]
	assert.Equal(t, "2024-11-15", last[0])
	for _, row := range rows[1:] {
		assert.Len(t, row, len(DailyColumns))
	}
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, SaveCSV(path, sampleResult(t)))

	assert.Error(t, SaveCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), sampleResult(t)))
}

func TestWriteXLSX(t *testing.T) {
	res := sampleResult(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSX(path, res))

	file, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{sheetDaily, sheetStages, sheetSummary}, file.GetSheetList())

	daily, err := file.GetRows(sheetDaily)
	require.NoError(t, err)
	require.Len(t, daily, len(res.Days)+1)
	assert.Equal(t, DailyColumns, daily[0])
	assert.Equal(t, res.Days[10].GrowthStage, daily[11][12])

	stages, err := file.GetRows(sheetStages)
	require.NoError(t, err)
	require.Len(t, stages, len(res.Transitions)+1)
	for i, tr := range res.Transitions {
		assert.Equal(t, tr.Stage, stages[i+1][0])
	}

	summary, err := file.GetRows(sheetSummary)
	require.NoError(t, err)
	values := map[string]string{}
	for _, row := range summary[1:] {
		require.Len(t, row, 2)
		values[row[0]] = row[1]
	}
	assert.Equal(t, res.Summary.FinalStage, values["final_stage"])
	assert.Equal(t, "seasonal", values["fvc_method"])
	assert.Equal(t, "46", values["days"])
}

func TestSummary(t *testing.T) {
	res := sampleResult(t)
	text := Summary(res)

	for _, want := range []string{
		"Season:           2024-10-01 to 2024-11-15 (46 days, 3 observations)",
		"Interpolation:    balanced",
		"Final stage:      " + res.Summary.FinalStage,
		"Growth stages:",
	} {
		assert.Contains(t, text, want)
	}
	assert.Equal(t, len(res.Transitions), strings.Count(text, " GDD\n"))
}
