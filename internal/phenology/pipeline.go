package phenology

import (
	"fmt"
	"sort"
	"time"
)

// Options selects the season and methods of one analysis run
type Options struct {
	Sowing        time.Time
	Harvest       time.Time
	FVCMethod     FVCMethod
	Interpolation InterpolationMethod
	Params        Params
}

// Analyze runs the full inference: observation preparation, FVC endpoint estimation, daily NDVI
// interpolation, cover conversion, GDD accumulation, stage classification and stress annotation.
// It is a pure function of its inputs; equal inputs give identical results.
func Analyze(weather []WeatherRecord, obs []Observation, opts Options) (*Result, error) {
	p := opts.Params
	fvcMethod := opts.FVCMethod
	if fvcMethod == "" {
		fvcMethod = FVCSeasonal
	}
	interp := opts.Interpolation
	if interp == "" {
		interp = InterpBalanced
	}

	prepared, err := PrepareObservations(obs, opts.Sowing, opts.Harvest, p)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare observations: %w", err)
	}

	fvc, err := EstimateFVCParams(prepared, fvcMethod, p)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate FVC parameters: %w", err)
	}

	ndvi, err := InterpolateNDVI(prepared, opts.Sowing, opts.Harvest, interp, p)
	if err != nil {
		return nil, fmt.Errorf("failed to interpolate NDVI: %w", err)
	}
	cover := ConvertCover(ndvi, fvc)

	table := sortedWeather(weather)
	gdd := AccumulateGDD(table, opts.Sowing, p.BaseTemperature)
	labels, transitions := ClassifyStages(gdd, p.stages())
	stress := AnnotateStress(table, p)

	days, err := Assemble(opts.Sowing, opts.Harvest, table, gdd, labels, cover, ndvi, stress)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble daily records: %w", err)
	}

	harvest := Day(opts.Harvest)
	seasonTransitions := transitions[:0:0]
	for _, t := range transitions {
		if !t.Date.After(harvest) {
			seasonTransitions = append(seasonTransitions, t)
		}
	}

	return &Result{
		SowingDate:    Day(opts.Sowing),
		HarvestDate:   harvest,
		FVCParams:     fvc,
		Interpolation: interp,
		Days:          days,
		Transitions:   seasonTransitions,
		Summary:       Summarize(days, len(prepared)),
	}, nil
}

// sortedWeather returns a date-ordered copy with one record per calendar day; later duplicates win
func sortedWeather(weather []WeatherRecord) []WeatherRecord {
	byDate := make(map[time.Time]WeatherRecord, len(weather))
	for _, r := range weather {
		byDate[Day(r.Date)] = r
	}
	out := make([]WeatherRecord, 0, len(byDate))
	for d, r := range byDate {
		r.Date = d
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
