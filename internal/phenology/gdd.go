package phenology

import (
	"math"
	"time"
)

// DailyGDD returns the growing degree days contributed by one day of weather
func DailyGDD(r WeatherRecord, baseTemp float64) float64 {
	return math.Max(0, (r.TemperatureMax+r.TemperatureMin)/2-baseTemp)
}

// AccumulateGDD converts a date-ordered weather table into cumulative growing degree days
// starting on the sowing date. Records before sowing are excluded; the running total starts at zero
// and is non-decreasing by construction.
func AccumulateGDD(weather []WeatherRecord, sowing time.Time, baseTemp float64) []GDDDay {
	start := Day(sowing)
	out := make([]GDDDay, 0, len(weather))

	cumulative := 0.0
	for _, r := range weather {
		date := Day(r.Date)
		if date.Before(start) {
			continue
		}
		daily := DailyGDD(r, baseTemp)
		cumulative += daily
		out = append(out, GDDDay{
			Date:          date,
			DailyGDD:      daily,
			CumulativeGDD: cumulative,
		})
	}

	return out
}
