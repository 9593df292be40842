package phenology

import "sort"

// ClassifyStages labels each day with the highest stage threshold its cumulative GDD has reached and
// records the first day each stage was reached.
//
// The classifier walks forward through the ordered thresholds and never revisits one it has passed,
// so a day that crosses several thresholds at once is labelled with the highest of them and every
// crossed stage gets that day as its transition date.
func ClassifyStages(gdd []GDDDay, thresholds []StageThreshold) ([]string, []StageTransition) {
	if len(thresholds) == 0 {
		thresholds = WheatStages()
	}
	ordered := make([]StageThreshold, len(thresholds))
	copy(ordered, thresholds)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].GDD < ordered[j].GDD })

	labels := make([]string, len(gdd))
	var transitions []StageTransition

	next := 0     // first threshold not yet reached
	current := "" // label of the last threshold reached
	for i, d := range gdd {
		for next < len(ordered) && ordered[next].GDD <= d.CumulativeGDD {
			current = ordered[next].Stage
			transitions = append(transitions, StageTransition{
				Stage:     ordered[next].Stage,
				Threshold: ordered[next].GDD,
				Date:      d.Date,
				GDD:       d.CumulativeGDD,
			})
			next++
		}
		if current == "" {
			// below the first threshold, only possible with a custom table
			current = ordered[0].Stage
		}
		labels[i] = current
	}

	return labels, transitions
}

// StageAt returns the stage implied by a cumulative GDD value
func StageAt(cumulativeGDD float64, thresholds []StageThreshold) string {
	labels, _ := ClassifyStages([]GDDDay{{CumulativeGDD: cumulativeGDD}}, thresholds)
	return labels[0]
}
