package phenology

import "time"

var testSowing = time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)

// weatherTable builds n contiguous days of mild weather starting at start; edit mutates each record
func weatherTable(start time.Time, n int, edit func(i int, r *WeatherRecord)) []WeatherRecord {
	out := make([]WeatherRecord, n)
	for i := range out {
		out[i] = WeatherRecord{
			Date:             start.AddDate(0, 0, i),
			TemperatureMean:  15,
			TemperatureMin:   8,
			TemperatureMax:   22,
			Precipitation:    1.5,
			RelativeHumidity: 70,
			Pressure:         1013,
			WindSpeed:        3,
			CloudCover:       40,
		}
		if edit != nil {
			edit(i, &out[i])
		}
	}
	return out
}

func obsAt(day int, ndvi float64) Observation {
	return Observation{Timestamp: testSowing.AddDate(0, 0, day), NDVI: ndvi}
}
