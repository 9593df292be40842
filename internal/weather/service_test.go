package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/phenocover/internal/location"
	"github.com/smukkama/phenocover/internal/phenology"
)

type stubProvider struct {
	records []phenology.WeatherRecord
	err     error
	calls   int
}

func (p *stubProvider) Fetch(_ context.Context, _ location.Point, _, _ time.Time) ([]phenology.WeatherRecord, error) {
	p.calls++
	return p.records, p.err
}

type memoryCache struct {
	tables map[string][]phenology.WeatherRecord
}

func newMemoryCache() *memoryCache {
	return &memoryCache{tables: map[string][]phenology.WeatherRecord{}}
}

func (c *memoryCache) Get(_ context.Context, loc location.Point, from, to time.Time) ([]phenology.WeatherRecord, bool, error) {
	r, ok := c.tables[CacheKey(loc, from, to)]
	return r, ok, nil
}

func (c *memoryCache) Set(_ context.Context, loc location.Point, from, to time.Time, records []phenology.WeatherRecord) error {
	c.tables[CacheKey(loc, from, to)] = records
	return nil
}

func apiDays(from time.Time, n int, skip map[int]bool) []phenology.WeatherRecord {
	var out []phenology.WeatherRecord
	for i := 0; i < n; i++ {
		if skip[i] {
			continue
		}
		out = append(out, phenology.WeatherRecord{
			Date:           from.AddDate(0, 0, i).Add(12 * time.Hour),
			TemperatureMin: 5,
			TemperatureMax: 15,
		})
	}
	return out
}

func assertContiguous(t *testing.T, table *Table, from time.Time, n int) {
	t.Helper()
	require.Len(t, table.Records, n)
	for i, r := range table.Records {
		assert.Equal(t, from.AddDate(0, 0, i), r.Date)
	}
}

func TestService_API(t *testing.T) {
	provider := &stubProvider{records: apiDays(testFrom, 10, nil)}
	cache := newMemoryCache()
	svc := NewService(provider, cache, false)

	table, err := svc.Table(context.Background(), testLoc, testFrom, testFrom.AddDate(0, 0, 9))
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, table.Source)
	assert.Zero(t, table.Backfilled)
	assertContiguous(t, table, testFrom, 10)

	again, err := svc.Table(context.Background(), testLoc, testFrom, testFrom.AddDate(0, 0, 9))
	require.NoError(t, err)
	assert.Equal(t, SourceCache, again.Source)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, table.Records, again.Records)
}

func TestService_BackfillsGaps(t *testing.T) {
	provider := &stubProvider{records: apiDays(testFrom, 10, map[int]bool{3: true, 4: true})}
	svc := NewService(provider, nil, false)

	table, err := svc.Table(context.Background(), testLoc, testFrom, testFrom.AddDate(0, 0, 9))
	require.NoError(t, err)
	assert.Equal(t, SourceMixed, table.Source)
	assert.Equal(t, 2, table.Backfilled)
	assertContiguous(t, table, testFrom, 10)
	assert.Equal(t, SyntheticDay(testLoc, testFrom.AddDate(0, 0, 3)), table.Records[3])
}

func TestService_FallsBackOnError(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	svc := NewService(provider, nil, false)

	table, err := svc.Table(context.Background(), testLoc, testFrom, testFrom.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, SourceSynthetic, table.Source)
	assert.Zero(t, table.Backfilled)
	assertContiguous(t, table, testFrom, 5)
}

func TestService_Offline(t *testing.T) {
	provider := &stubProvider{records: apiDays(testFrom, 5, nil)}
	svc := NewService(provider, nil, true)

	table, err := svc.Table(context.Background(), testLoc, testFrom, testFrom.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, SourceSynthetic, table.Source)
	assert.Zero(t, provider.calls)
	assert.Zero(t, table.Backfilled)
	assertContiguous(t, table, testFrom, 5)

	want, err := Synthetic{}.Fetch(context.Background(), testLoc, testFrom, testFrom.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, want, table.Records)
}

func TestService_InvalidRange(t *testing.T) {
	svc := NewService(nil, nil, true)
	_, err := svc.Table(context.Background(), testLoc, testFrom, testFrom.AddDate(0, 0, -1))
	assert.Error(t, err)
}

func TestSynthetic_Deterministic(t *testing.T) {
	to := testFrom.AddDate(1, 0, 0)
	a, err := Synthetic{}.Fetch(context.Background(), testLoc, testFrom, to)
	require.NoError(t, err)
	b, err := Synthetic{}.Fetch(context.Background(), testLoc, testFrom, to)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 366)

	rainy := 0
	for _, r := range a {
		assert.LessOrEqual(t, r.TemperatureMin, r.TemperatureMean)
		assert.LessOrEqual(t, r.TemperatureMean, r.TemperatureMax)
		assert.GreaterOrEqual(t, r.Precipitation, 0.0)
		if r.Precipitation > 0 {
			rainy++
		}
	}
	assert.Greater(t, rainy, 30)
	assert.Less(t, rainy, 180)
}

func TestSynthetic_Seasons(t *testing.T) {
	winter := SyntheticDay(testLoc, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))
	summer := SyntheticDay(testLoc, time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC))
	assert.Less(t, winter.TemperatureMean, summer.TemperatureMean)

	south := location.Point{Lat: -34.6, Lon: -58.4}
	assert.Greater(t,
		SyntheticDay(south, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)).TemperatureMean,
		SyntheticDay(south, time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)).TemperatureMean)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "weather:45.00:7.60:2024-10-01:2024-10-31",
		CacheKey(testLoc, testFrom, testFrom.AddDate(0, 0, 30)))
}
