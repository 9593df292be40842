package report

import (
	"fmt"
	"strings"

	"github.com/smukkama/phenocover/internal/phenology"
)

// Summary renders a plain-text overview of an analysis
func Summary(res *phenology.Result) string {
	s := res.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "Season:           %s to %s (%d days, %d observations)\n",
		res.SowingDate.Format(dateLayout), res.HarvestDate.Format(dateLayout), s.Days, s.Observations)
	fmt.Fprintf(&b, "FVC parameters:   %s, soil %.3f, vegetation %.3f",
		res.FVCParams.Method, res.FVCParams.NDVISoil, res.FVCParams.NDVIVegetation)
	if res.FVCParams.FellBack {
		b.WriteString(" (literature defaults)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Interpolation:    %s\n", res.Interpolation)
	fmt.Fprintf(&b, "Peak NDVI:        %.3f on %s\n", s.PeakNDVI, s.PeakNDVIDate.Format(dateLayout))
	fmt.Fprintf(&b, "Mean NDVI:        %.3f\n", s.MeanNDVI)
	fmt.Fprintf(&b, "Max ground cover: %.1f%%\n", s.MaxGroundCoverPct)
	fmt.Fprintf(&b, "Total GDD:        %.0f\n", s.TotalGDD)
	fmt.Fprintf(&b, "Final stage:      %s\n", s.FinalStage)
	fmt.Fprintf(&b, "Stress days:      heat %d, cold %d, drought %d (optimal %d)\n",
		s.HeatStressDays, s.ColdStressDays, s.DroughtStressDays, s.OptimalDays)
	fmt.Fprintf(&b, "Precipitation:    %.1f mm\n", s.TotalPrecipMm)

	if len(res.Transitions) > 0 {
		b.WriteString("\nGrowth stages:\n")
		for _, t := range res.Transitions {
			fmt.Fprintf(&b, "  %s  %-16s %6.0f GDD\n", t.Date.Format(dateLayout), t.Stage, t.GDD)
		}
	}

	return b.String()
}

func summaryRows(res *phenology.Result) [][]interface{} {
	s := res.Summary
	return [][]interface{}{
		{"sowing_date", res.SowingDate},
		{"harvest_date", res.HarvestDate},
		{"days", s.Days},
		{"observations", s.Observations},
		{"fvc_method", string(res.FVCParams.Method)},
		{"ndvi_soil", res.FVCParams.NDVISoil},
		{"ndvi_vegetation", res.FVCParams.NDVIVegetation},
		{"fvc_fell_back", res.FVCParams.FellBack},
		{"interpolation", string(res.Interpolation)},
		{"peak_ndvi", s.PeakNDVI},
		{"peak_ndvi_date", s.PeakNDVIDate},
		{"mean_ndvi", s.MeanNDVI},
		{"max_ground_cover_pct", s.MaxGroundCoverPct},
		{"total_gdd", s.TotalGDD},
		{"final_stage", s.FinalStage},
		{"heat_stress_days", s.HeatStressDays},
		{"cold_stress_days", s.ColdStressDays},
		{"drought_stress_days", s.DroughtStressDays},
		{"optimal_days", s.OptimalDays},
		{"total_precipitation_mm", s.TotalPrecipMm},
	}
}
