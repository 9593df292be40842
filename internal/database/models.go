package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/phenocover/internal/phenology"
)

// Run is one persisted analysis: the frozen result plus where and how it was produced
type Run struct {
	ID            string
	CreatedAt     time.Time
	Latitude      float64
	Longitude     float64
	WeatherSource string // api, cache, synthetic or mixed
	Result        *phenology.Result
}

// NewRun stamps a result with a fresh run ID
func NewRun(result *phenology.Result, lat, lon float64, weatherSource string) *Run {
	return &Run{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Latitude:      lat,
		Longitude:     lon,
		WeatherSource: weatherSource,
		Result:        result,
	}
}

// Store persists analysis runs
type Store interface {
	SaveAnalysis(ctx context.Context, run *Run) error
	Close() error
}

const dateLayout = "2006-01-02"

// timestampLayout is fixed width so created_at sorts as text
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
