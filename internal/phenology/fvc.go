package phenology

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
)

// FVCMethod selects how the mixing model endpoints are estimated
type FVCMethod string

const (
	FVCLiterature FVCMethod = "literature"
	FVCDataDriven FVCMethod = "data_driven"
	FVCSeasonal   FVCMethod = "seasonal"
)

// ParseFVCMethod validates a method name from configuration
func ParseFVCMethod(s string) (FVCMethod, error) {
	switch m := FVCMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case FVCLiterature, FVCDataDriven, FVCSeasonal:
		return m, nil
	case "":
		return FVCSeasonal, nil
	default:
		return "", fmt.Errorf("%w: fvc method %q (expected literature, data_driven or seasonal)", ErrUnknownMethod, s)
	}
}

// EstimateFVCParams derives the soil and vegetation NDVI endpoints from sorted observations.
// A degenerate result (span below MinEndpointSpan) reverts to the literature defaults, and so does
// any set of observations whose own NDVI range is narrower than MinEndpointSpan, whatever the
// per-window fallbacks of the seasonal method produced.
func EstimateFVCParams(obs []Observation, method FVCMethod, p Params) (FVCParams, error) {
	literature := FVCParams{
		NDVISoil:       p.LiteratureSoil,
		NDVIVegetation: p.LiteratureVegetation,
		Method:         method,
	}

	var est FVCParams
	switch method {
	case FVCLiterature:
		return literature, nil
	case FVCDataDriven:
		est = dataDrivenEndpoints(obs, p)
	case FVCSeasonal:
		est = seasonalEndpoints(obs, p)
	default:
		return FVCParams{}, fmt.Errorf("%w: fvc method %q", ErrUnknownMethod, method)
	}
	est.Method = method

	if est.NDVIVegetation-est.NDVISoil < p.MinEndpointSpan || observedRange(obs) < p.MinEndpointSpan {
		literature.FellBack = true
		return literature, nil
	}
	return est, nil
}

func dataDrivenEndpoints(obs []Observation, p Params) FVCParams {
	values := ndviValues(obs)
	lo, errMin := stats.Min(values)
	hi, errMax := stats.Max(values)
	if errMin != nil || errMax != nil {
		return FVCParams{NDVISoil: p.LiteratureSoil, NDVIVegetation: p.LiteratureVegetation, FellBack: true}
	}

	if lo < p.DataDrivenSoilFloor {
		lo = p.DataDrivenSoilFloor
	}
	if hi > p.DataDrivenVegCeiling {
		hi = p.DataDrivenVegCeiling
	}
	return FVCParams{NDVISoil: lo, NDVIVegetation: hi}
}

// seasonalEndpoints averages the early-season window as bare soil and the mid-season window as
// full canopy. Windows are fractions of the span between the first and last observation.
func seasonalEndpoints(obs []Observation, p Params) FVCParams {
	out := FVCParams{NDVISoil: p.LiteratureSoil, NDVIVegetation: p.LiteratureVegetation}
	if len(obs) == 0 {
		out.FellBack = true
		return out
	}

	first := obs[0].Timestamp
	span := obs[len(obs)-1].Timestamp.Sub(first).Hours() / 24

	window := func(bounds [2]float64) []float64 {
		var vals []float64
		for _, o := range obs {
			frac := 0.0
			if span > 0 {
				frac = o.Timestamp.Sub(first).Hours() / 24 / span
			}
			if frac >= bounds[0] && frac <= bounds[1] {
				vals = append(vals, o.NDVI)
			}
		}
		return vals
	}

	if soil := window(p.SeasonalSoilWindow); len(soil) >= p.SeasonalMinObs {
		out.NDVISoil, _ = stats.Mean(soil)
	} else {
		out.FellBack = true
	}
	if peak := window(p.SeasonalPeakWindow); len(peak) >= p.SeasonalMinObs {
		out.NDVIVegetation, _ = stats.Mean(peak)
	} else {
		out.FellBack = true
	}
	return out
}

// observedRange is max - min of the observed NDVI, zero for fewer than two observations
func observedRange(obs []Observation) float64 {
	values := ndviValues(obs)
	lo, errMin := stats.Min(values)
	hi, errMax := stats.Max(values)
	if errMin != nil || errMax != nil {
		return 0
	}
	return hi - lo
}

func ndviValues(obs []Observation) []float64 {
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.NDVI
	}
	return values
}
