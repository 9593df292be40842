package phenology

// AnnotateStress derives the daily stress flags for every record of a date-ordered weather table.
// Flags are evaluated independently; drought depends on a trailing run of dry days, so the whole
// table is walked, including days before sowing.
func AnnotateStress(weather []WeatherRecord, p Params) []StressFlags {
	out := make([]StressFlags, len(weather))

	dry := 0
	for i, r := range weather {
		if r.Precipitation > 0 {
			dry = 0
		} else {
			dry++
		}

		out[i] = StressFlags{
			Date:    Day(r.Date),
			Heat:    r.TemperatureMax > p.HeatMax,
			Cold:    r.TemperatureMin < p.ColdMin,
			Drought: p.DroughtDays > 0 && dry >= p.DroughtDays,
			Optimal: r.TemperatureMean >= p.OptimalMinTemp && r.TemperatureMean <= p.OptimalMaxTemp &&
				r.Precipitation > 0,
			DryDays: dry,
		}
	}

	return out
}
