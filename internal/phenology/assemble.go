package phenology

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

// Assemble joins the per-day outputs of the core components on calendar date into one record per day
// of [sowing, harvest]. Every season date must be present in the weather table.
func Assemble(sowing, harvest time.Time, weather []WeatherRecord, gdd []GDDDay, stages []string,
	cover []CoverDay, ndvi []NDVIDay, stress []StressFlags) ([]DailyRecord, error) {

	start := Day(sowing)
	length := daysBetween(start, harvest)
	if length <= 0 {
		return nil, ErrInvalidSeason
	}

	weatherByDate := make(map[time.Time]WeatherRecord, len(weather))
	for _, r := range weather {
		weatherByDate[Day(r.Date)] = r
	}
	stressByDate := make(map[time.Time]StressFlags, len(stress))
	for _, s := range stress {
		stressByDate[s.Date] = s
	}
	gddByDate := make(map[time.Time]int, len(gdd))
	for i, g := range gdd {
		gddByDate[g.Date] = i
	}

	if len(ndvi) != length+1 || len(cover) != length+1 {
		return nil, fmt.Errorf("failed to assemble: expected %d daily estimates, got %d NDVI and %d cover",
			length+1, len(ndvi), len(cover))
	}

	records := make([]DailyRecord, 0, length+1)
	for i := 0; i <= length; i++ {
		date := start.AddDate(0, 0, i)

		w, ok := weatherByDate[date]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrWeatherGap, date.Format("2006-01-02"))
		}
		gi, ok := gddByDate[date]
		if !ok || gi >= len(stages) {
			return nil, fmt.Errorf("%w: no GDD for %s", ErrWeatherGap, date.Format("2006-01-02"))
		}
		s := stressByDate[date]
		n, c := ndvi[i], cover[i]

		records = append(records, DailyRecord{
			Date:             date,
			NDVI:             n.Value,
			NDVILower:        n.Lower,
			NDVIUpper:        n.Upper,
			FVC:              c.FVC,
			FVCLower:         c.FVCLower,
			FVCUpper:         c.FVCUpper,
			GroundCoverPct:   c.GroundCoverPct,
			GroundCoverLower: c.GroundCoverLower,
			GroundCoverUpper: c.GroundCoverUpper,
			DailyGDD:         gdd[gi].DailyGDD,
			CumulativeGDD:    gdd[gi].CumulativeGDD,
			GrowthStage:      stages[gi],
			HeatStress:       s.Heat,
			ColdStress:       s.Cold,
			DroughtStress:    s.Drought,
			Optimal:          s.Optimal,
			Weather:          w,
		})
	}

	return records, nil
}

// Summarize computes the season headline numbers from assembled records
func Summarize(days []DailyRecord, observations int) Summary {
	sum := Summary{Days: len(days), Observations: observations}
	if len(days) == 0 {
		return sum
	}

	values := make([]float64, len(days))
	for i, d := range days {
		values[i] = d.NDVI
		if i == 0 || d.NDVI > sum.PeakNDVI {
			sum.PeakNDVI = d.NDVI
			sum.PeakNDVIDate = d.Date
		}
		if d.GroundCoverPct > sum.MaxGroundCoverPct {
			sum.MaxGroundCoverPct = d.GroundCoverPct
		}
		if d.HeatStress {
			sum.HeatStressDays++
		}
		if d.ColdStress {
			sum.ColdStressDays++
		}
		if d.DroughtStress {
			sum.DroughtStressDays++
		}
		if d.Optimal {
			sum.OptimalDays++
		}
		sum.TotalPrecipMm += d.Weather.Precipitation
	}
	sum.MeanNDVI, _ = stats.Mean(values)

	last := days[len(days)-1]
	sum.TotalGDD = last.CumulativeGDD
	sum.FinalStage = last.GrowthStage
	return sum
}
