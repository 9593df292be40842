package phenology

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareObservations(t *testing.T) {
	harvest := testSowing.AddDate(0, 0, 100)
	p := DefaultParams()

	t.Run("sorts and clamps", func(t *testing.T) {
		obs, err := PrepareObservations([]Observation{obsAt(50, 1.03), obsAt(10, 0.2), obsAt(30, -0.02)}, testSowing, harvest, p)
		require.NoError(t, err)
		require.Len(t, obs, 3)
		assert.Equal(t, 0.2, obs[0].NDVI)
		assert.Equal(t, 0.0, obs[1].NDVI)
		assert.Equal(t, 1.0, obs[2].NDVI)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := PrepareObservations([]Observation{obsAt(10, 0.2), obsAt(20, 1.2)}, testSowing, harvest, p)
		assert.ErrorIs(t, err, ErrNDVIOutOfRange)
	})

	t.Run("duplicate timestamp", func(t *testing.T) {
		_, err := PrepareObservations([]Observation{obsAt(10, 0.2), obsAt(10, 0.3)}, testSowing, harvest, p)
		assert.ErrorIs(t, err, ErrDuplicateObservation)
	})

	t.Run("drops out of season", func(t *testing.T) {
		obs, err := PrepareObservations([]Observation{obsAt(-3, 0.1), obsAt(10, 0.2), obsAt(130, 0.3)}, testSowing, harvest, p)
		require.NoError(t, err)
		require.Len(t, obs, 1)
		assert.Equal(t, 0.2, obs[0].NDVI)
	})

	t.Run("season membership in UTC", func(t *testing.T) {
		hawaii := time.FixedZone("HST", -10*3600)
		late := Observation{Timestamp: time.Date(2025, time.January, 9, 20, 0, 0, 0, hawaii), NDVI: 0.5}
		morning := Observation{Timestamp: time.Date(2025, time.January, 9, 8, 0, 0, 0, hawaii), NDVI: 0.4}

		obs, err := PrepareObservations([]Observation{obsAt(0, 0.2), late, morning}, testSowing, harvest, p)
		require.NoError(t, err)
		require.Len(t, obs, 2)
		assert.Equal(t, time.UTC, obs[1].Timestamp.Location())
		assert.Equal(t, time.Date(2025, time.January, 9, 18, 0, 0, 0, time.UTC), obs[1].Timestamp)
		assert.Equal(t, 0.4, obs[1].NDVI)
	})

	t.Run("nothing in season", func(t *testing.T) {
		_, err := PrepareObservations([]Observation{obsAt(-3, 0.1)}, testSowing, harvest, p)
		assert.ErrorIs(t, err, ErrEmptyObservations)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := PrepareObservations(nil, testSowing, harvest, p)
		assert.ErrorIs(t, err, ErrEmptyObservations)
	})

	t.Run("inverted season", func(t *testing.T) {
		_, err := PrepareObservations([]Observation{obsAt(1, 0.2)}, harvest, testSowing, p)
		assert.ErrorIs(t, err, ErrInvalidSeason)

		_, err = PrepareObservations([]Observation{obsAt(0, 0.2)}, testSowing, testSowing, p)
		assert.ErrorIs(t, err, ErrInvalidSeason)
	})
}

func TestInterpolateNDVI_Linear(t *testing.T) {
	obs := []Observation{obsAt(0, 0.2), obsAt(10, 0.4)}

	days, err := InterpolateNDVI(obs, testSowing, testSowing.AddDate(0, 0, 20), InterpLinear, DefaultParams())
	require.NoError(t, err)

	require.Len(t, days, 21)
	assert.Equal(t, testSowing, days[0].Date)
	assert.Equal(t, testSowing.AddDate(0, 0, 20), days[20].Date)
	assert.InDelta(t, 0.2, days[0].Value, 1e-9)
	assert.InDelta(t, 0.3, days[5].Value, 1e-9)
	assert.InDelta(t, 0.4, days[15].Value, 1e-9, "holds the last value past the final observation")

	// baseline band on an observation day
	assert.InDelta(t, 0.17, days[0].Lower, 1e-9)
	assert.InDelta(t, 0.23, days[0].Upper, 1e-9)
}

func TestInterpolateNDVI_BandWidensWithDistance(t *testing.T) {
	obs := []Observation{obsAt(0, 0.2), obsAt(10, 0.4)}

	days, err := InterpolateNDVI(obs, testSowing, testSowing.AddDate(0, 0, 40), InterpLinear, DefaultParams())
	require.NoError(t, err)

	near := days[11].Upper - days[11].Lower
	far := days[30].Upper - days[30].Lower
	assert.Greater(t, far, near)
	assert.LessOrEqual(t, far, 2*DefaultParams().BandMax+1e-9)
}

func TestInterpolateNDVI_BandInvariants(t *testing.T) {
	obs := []Observation{
		obsAt(3, 0.02), obsAt(12, 0.98), obsAt(15, 0.99), obsAt(40, 0.05),
		obsAt(44, 0.6), obsAt(90, 0.95), obsAt(91, 0.1),
	}
	harvest := testSowing.AddDate(0, 0, 120)

	for _, method := range []InterpolationMethod{InterpLinear, InterpCubic, InterpBalanced} {
		t.Run(string(method), func(t *testing.T) {
			days, err := InterpolateNDVI(obs, testSowing, harvest, method, DefaultParams())
			require.NoError(t, err)
			require.Len(t, days, 121)

			for i, d := range days {
				if d.Lower < 0 || d.Upper > 1 || d.Lower > d.Value || d.Value > d.Upper {
					t.Fatalf("day %d: band %.4f <= %.4f <= %.4f violated", i, d.Lower, d.Value, d.Upper)
				}
				assert.Equal(t, testSowing.AddDate(0, 0, i), d.Date)
			}
		})
	}
}

func TestInterpolateNDVI_SingleObservation(t *testing.T) {
	days, err := InterpolateNDVI([]Observation{obsAt(20, 0.45)}, testSowing, testSowing.AddDate(0, 0, 30), InterpBalanced, DefaultParams())
	require.NoError(t, err)
	for _, d := range days {
		assert.InDelta(t, 0.45, d.Value, 1e-9)
	}
}

func TestInterpolateNDVI_FractionalTimestamps(t *testing.T) {
	obs := []Observation{
		{Timestamp: testSowing.Add(10*24*time.Hour + 12*time.Hour), NDVI: 0.3},
		{Timestamp: testSowing.Add(20*24*time.Hour + 12*time.Hour), NDVI: 0.5},
	}

	days, err := InterpolateNDVI(obs, testSowing, testSowing.AddDate(0, 0, 30), InterpLinear, DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 0.31, days[11].Value, 1e-9)
}

func TestInterpolateNDVI_UnknownMethod(t *testing.T) {
	_, err := InterpolateNDVI([]Observation{obsAt(0, 0.2)}, testSowing, testSowing.AddDate(0, 0, 5), "akima", DefaultParams())
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestSpline_PassesThroughKnots(t *testing.T) {
	xs := []float64{0, 10, 25, 40}
	ys := []float64{0.2, 0.6, 0.7, 0.3}
	s := newSpline(xs, ys)

	for i := range xs {
		assert.InDelta(t, ys[i], s.at(xs[i]), 1e-9)
	}
}

func TestReferenceWeight(t *testing.T) {
	p := DefaultParams()
	xs := []float64{0, 10, 60}

	assert.Equal(t, 0.0, referenceWeight(xs, 5, p), "short gap")
	assert.Equal(t, 0.0, referenceWeight(xs, 10, p), "on an observation")
	assert.InDelta(t, p.MaxReferenceWeight, referenceWeight(xs, 35, p), 1e-9, "middle of a long gap")
	assert.Greater(t, referenceWeight(xs, 70, p), 0.0, "past the last observation")
}
