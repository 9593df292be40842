package phenology

import (
	"time"
)

// WeatherRecord is one calendar day of weather, as handed over by the weather collaborator
type WeatherRecord struct {
	Date             time.Time `json:"date"`
	TemperatureMean  float64   `json:"temperature_mean"`
	TemperatureMin   float64   `json:"temperature_min"`
	TemperatureMax   float64   `json:"temperature_max"`
	Precipitation    float64   `json:"precipitation"`
	RelativeHumidity float64   `json:"relative_humidity"`
	Pressure         float64   `json:"pressure"`
	WindSpeed        float64   `json:"wind_speed"`
	CloudCover       float64   `json:"cloud_cover"`
}

// Observation is a single field NDVI measurement
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	NDVI      float64   `json:"ndvi"`
}

// FVCParams holds the soil and vegetation endpoints of the linear mixing model
type FVCParams struct {
	NDVISoil       float64   `json:"ndvi_soil"`
	NDVIVegetation float64   `json:"ndvi_vegetation"`
	Method         FVCMethod `json:"method"`
	FellBack       bool      `json:"fell_back"` // literature defaults substituted for at least one endpoint
}

// GDDDay is the heat-unit state of a single day from sowing onwards
type GDDDay struct {
	Date          time.Time
	DailyGDD      float64
	CumulativeGDD float64
}

// NDVIDay is an interpolated NDVI estimate with its confidence band
type NDVIDay struct {
	Date  time.Time
	Value float64
	Lower float64
	Upper float64
}

// CoverDay is the fractional vegetation cover derived from an NDVIDay
type CoverDay struct {
	Date             time.Time
	FVC              float64
	FVCLower         float64
	FVCUpper         float64
	GroundCoverPct   float64
	GroundCoverLower float64
	GroundCoverUpper float64
}

// StressFlags are the per-day weather stress annotations
type StressFlags struct {
	Date    time.Time
	Heat    bool
	Cold    bool
	Drought bool
	Optimal bool
	DryDays int // consecutive days without precipitation ending on Date
}

// DailyRecord is the primary output unit: one fully annotated day of the season
type DailyRecord struct {
	Date time.Time `json:"date"`

	NDVI      float64 `json:"ndvi_interpolated"`
	NDVILower float64 `json:"ndvi_lower"`
	NDVIUpper float64 `json:"ndvi_upper"`

	FVC      float64 `json:"fvc"`
	FVCLower float64 `json:"fvc_lower"`
	FVCUpper float64 `json:"fvc_upper"`

	GroundCoverPct   float64 `json:"ground_cover_pct"`
	GroundCoverLower float64 `json:"ground_cover_pct_lower"`
	GroundCoverUpper float64 `json:"ground_cover_pct_upper"`

	DailyGDD      float64 `json:"daily_gdd"`
	CumulativeGDD float64 `json:"cumulative_gdd"`
	GrowthStage   string  `json:"growth_stage"`

	HeatStress    bool `json:"heat_stress"`
	ColdStress    bool `json:"cold_stress"`
	DroughtStress bool `json:"drought_stress"`
	Optimal       bool `json:"optimal"`

	Weather WeatherRecord `json:"weather"`
}

// StageTransition marks the first day a growth stage was reached
type StageTransition struct {
	Stage     string    `json:"stage"`
	Threshold float64   `json:"threshold_gdd"`
	Date      time.Time `json:"date"`
	GDD       float64   `json:"cumulative_gdd"`
}

// Summary condenses a season into a handful of headline numbers
type Summary struct {
	Days              int       `json:"days"`
	Observations      int       `json:"observations"`
	PeakNDVI          float64   `json:"peak_ndvi"`
	PeakNDVIDate      time.Time `json:"peak_ndvi_date"`
	MeanNDVI          float64   `json:"mean_ndvi"`
	MaxGroundCoverPct float64   `json:"max_ground_cover_pct"`
	TotalGDD          float64   `json:"total_gdd"`
	FinalStage        string    `json:"final_stage"`
	HeatStressDays    int       `json:"heat_stress_days"`
	ColdStressDays    int       `json:"cold_stress_days"`
	DroughtStressDays int       `json:"drought_stress_days"`
	OptimalDays       int       `json:"optimal_days"`
	TotalPrecipMm     float64   `json:"total_precipitation_mm"`
}

// Result is the frozen output of one analysis run
type Result struct {
	SowingDate    time.Time           `json:"sowing_date"`
	HarvestDate   time.Time           `json:"harvest_date"`
	FVCParams     FVCParams           `json:"fvc_params"`
	Interpolation InterpolationMethod `json:"interpolation"`
	Days          []DailyRecord       `json:"days"`
	Transitions   []StageTransition   `json:"transitions"`
	Summary       Summary             `json:"summary"`
}

// Day normalizes t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole number of calendar days from a to b
func daysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
