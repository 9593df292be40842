package report

import (
	"strconv"
	"time"

	"github.com/smukkama/phenocover/internal/phenology"
)

const dateLayout = "2006-01-02"

// DailyColumns is the column order of the daily table in every output format
var DailyColumns = []string{
	"date",
	"ndvi_interpolated", "ndvi_lower", "ndvi_upper",
	"fvc", "fvc_lower", "fvc_upper",
	"ground_cover_pct", "ground_cover_pct_lower", "ground_cover_pct_upper",
	"daily_gdd", "cumulative_gdd", "growth_stage",
	"heat_stress", "cold_stress", "drought_stress", "optimal",
	"temperature_mean", "temperature_min", "temperature_max", "precipitation",
	"relative_humidity", "pressure", "wind_speed", "cloud_cover",
}

// StageColumns is the column order of the stage transition table
var StageColumns = []string{"stage", "threshold_gdd", "date", "cumulative_gdd", "days_after_sowing"}

func dailyRow(d phenology.DailyRecord) []interface{} {
	w := d.Weather
	return []interface{}{
		d.Date,
		d.NDVI, d.NDVILower, d.NDVIUpper,
		d.FVC, d.FVCLower, d.FVCUpper,
		d.GroundCoverPct, d.GroundCoverLower, d.GroundCoverUpper,
		d.DailyGDD, d.CumulativeGDD, d.GrowthStage,
		d.HeatStress, d.ColdStress, d.DroughtStress, d.Optimal,
		w.TemperatureMean, w.TemperatureMin, w.TemperatureMax, w.Precipitation,
		w.RelativeHumidity, w.Pressure, w.WindSpeed, w.CloudCover,
	}
}

func stageRow(t phenology.StageTransition, sowing time.Time) []interface{} {
	return []interface{}{
		t.Stage,
		t.Threshold,
		t.Date,
		t.GDD,
		int(t.Date.Sub(phenology.Day(sowing)).Hours() / 24),
	}
}

// formatValue renders a cell for text output
func formatValue(val interface{}) string {
	switch v := val.(type) {
	case time.Time:
		return v.Format(dateLayout)
	case float64:
		return strconv.FormatFloat(v, 'f', 4, 64)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return ""
	}
}
