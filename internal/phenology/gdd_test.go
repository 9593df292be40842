package phenology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyGDD(t *testing.T) {
	assert.Equal(t, 10.0, DailyGDD(WeatherRecord{TemperatureMin: 5, TemperatureMax: 15}, 0))
	assert.Equal(t, 5.0, DailyGDD(WeatherRecord{TemperatureMin: 5, TemperatureMax: 15}, 5))
	assert.Equal(t, 0.0, DailyGDD(WeatherRecord{TemperatureMin: -10, TemperatureMax: 0}, 0), "negative contributions are floored")
}

func TestAccumulateGDD_StartsAtSowing(t *testing.T) {
	weather := weatherTable(testSowing.AddDate(0, 0, -5), 15, nil)

	gdd := AccumulateGDD(weather, testSowing, 0)

	require.Len(t, gdd, 10)
	assert.Equal(t, testSowing, gdd[0].Date)
	assert.Equal(t, 15.0, gdd[0].CumulativeGDD)
	assert.Equal(t, 150.0, gdd[9].CumulativeGDD)
}

func TestAccumulateGDD_NonDecreasing(t *testing.T) {
	weather := weatherTable(testSowing, 120, func(i int, r *WeatherRecord) {
		// alternate freezing and warm spells
		if (i/7)%2 == 0 {
			r.TemperatureMin, r.TemperatureMax = -12, -2
		} else {
			r.TemperatureMin, r.TemperatureMax = 4, float64(10+i%9)
		}
	})

	gdd := AccumulateGDD(weather, testSowing, 0)

	require.Len(t, gdd, 120)
	for i := 1; i < len(gdd); i++ {
		if gdd[i].CumulativeGDD < gdd[i-1].CumulativeGDD {
			t.Fatalf("cumulative GDD decreased on day %d: %.2f -> %.2f", i, gdd[i-1].CumulativeGDD, gdd[i].CumulativeGDD)
		}
		assert.GreaterOrEqual(t, gdd[i].DailyGDD, 0.0)
	}
	assert.Equal(t, 0.0, gdd[0].CumulativeGDD, "first week is below freezing")
}
