package phenology

// FVC applies the linear mixing model to a single NDVI value.
// A zero-span model yields 0 rather than dividing by zero.
func (p FVCParams) FVC(ndvi float64) float64 {
	span := p.NDVIVegetation - p.NDVISoil
	if span == 0 {
		return 0
	}
	return clamp01((ndvi - p.NDVISoil) / span)
}

// ConvertCover turns interpolated NDVI into fractional vegetation cover and ground cover percentage.
// The band bounds go through the same formula as the point estimate.
func ConvertCover(ndvi []NDVIDay, params FVCParams) []CoverDay {
	out := make([]CoverDay, len(ndvi))
	for i, d := range ndvi {
		fvc := params.FVC(d.Value)
		lower := params.FVC(d.Lower)
		upper := params.FVC(d.Upper)
		out[i] = CoverDay{
			Date:             d.Date,
			FVC:              fvc,
			FVCLower:         lower,
			FVCUpper:         upper,
			GroundCoverPct:   fvc * 100,
			GroundCoverLower: lower * 100,
			GroundCoverUpper: upper * 100,
		}
	}
	return out
}
