package phenology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFVCMethod(t *testing.T) {
	m, err := ParseFVCMethod("")
	require.NoError(t, err)
	assert.Equal(t, FVCSeasonal, m)

	m, err = ParseFVCMethod(" Data_Driven ")
	require.NoError(t, err)
	assert.Equal(t, FVCDataDriven, m)

	_, err = ParseFVCMethod("ndvi_max")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestEstimateFVCParams_Literature(t *testing.T) {
	p, err := EstimateFVCParams([]Observation{obsAt(0, 0.4)}, FVCLiterature, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 0.15, p.NDVISoil)
	assert.Equal(t, 0.85, p.NDVIVegetation)
	assert.False(t, p.FellBack)
}

func TestEstimateFVCParams_DataDrivenClamps(t *testing.T) {
	obs := []Observation{obsAt(0, 0.02), obsAt(30, 0.6), obsAt(60, 0.99)}

	p, err := EstimateFVCParams(obs, FVCDataDriven, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 0.05, p.NDVISoil)
	assert.Equal(t, 0.95, p.NDVIVegetation)
	assert.Equal(t, FVCDataDriven, p.Method)
}

func TestEstimateFVCParams_NarrowRangeRevertsToLiterature(t *testing.T) {
	obs := []Observation{obsAt(0, 0.2), obsAt(20, 0.25), obsAt(40, 0.3)}

	for _, method := range []FVCMethod{FVCDataDriven, FVCSeasonal} {
		p, err := EstimateFVCParams(obs, method, DefaultParams())
		require.NoError(t, err)
		assert.Equal(t, 0.15, p.NDVISoil, method)
		assert.Equal(t, 0.85, p.NDVIVegetation, method)
		assert.True(t, p.FellBack, method)
		assert.Less(t, p.NDVISoil, p.NDVIVegetation)
	}
}

func TestEstimateFVCParams_NarrowRangeSeasonalShapes(t *testing.T) {
	tests := []struct {
		name string
		obs  []Observation
	}{
		{
			name: "both windows populated",
			obs:  []Observation{obsAt(0, 0.2), obsAt(10, 0.22), obsAt(45, 0.3), obsAt(55, 0.29), obsAt(100, 0.25)},
		},
		{
			name: "dense early window, sparse peak window",
			obs:  []Observation{obsAt(0, 0.2), obsAt(5, 0.25), obsAt(10, 0.3), obsAt(80, 0.3), obsAt(100, 0.28)},
		},
		{
			name: "sparse early window, dense peak window",
			obs:  []Observation{obsAt(0, 0.2), obsAt(45, 0.3), obsAt(50, 0.29), obsAt(55, 0.3), obsAt(100, 0.22)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, method := range []FVCMethod{FVCDataDriven, FVCSeasonal} {
				p, err := EstimateFVCParams(tt.obs, method, DefaultParams())
				require.NoError(t, err)
				assert.Equal(t, 0.15, p.NDVISoil, method)
				assert.Equal(t, 0.85, p.NDVIVegetation, method)
				assert.True(t, p.FellBack, method)
			}
		})
	}
}

func TestEstimateFVCParams_SeasonalWindows(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.5, 0.7, 0.8, 0.9, 0.7, 0.5, 0.4, 0.3}
	obs := make([]Observation, len(values))
	for i, v := range values {
		obs[i] = obsAt(i*10, v)
	}

	p, err := EstimateFVCParams(obs, FVCSeasonal, DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 0.2, p.NDVISoil, 1e-9)
	assert.InDelta(t, 0.8, p.NDVIVegetation, 1e-9)
	assert.False(t, p.FellBack)
}

func TestEstimateFVCParams_SparseSeasonalFallsBack(t *testing.T) {
	obs := []Observation{obsAt(0, 0.2), obsAt(60, 0.75), obsAt(120, 0.35)}

	p, err := EstimateFVCParams(obs, FVCSeasonal, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 0.15, p.NDVISoil)
	assert.Equal(t, 0.85, p.NDVIVegetation)
	assert.True(t, p.FellBack)
}
