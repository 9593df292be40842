package weather

import (
	"context"
	"time"

	"github.com/smukkama/phenocover/internal/location"
	"github.com/smukkama/phenocover/internal/phenology"
)

// Provider fetches daily weather records for a location and inclusive date range.
// Days the provider has no data for are simply absent from the result.
type Provider interface {
	Fetch(ctx context.Context, loc location.Point, from, to time.Time) ([]phenology.WeatherRecord, error)
}

// Data sources reported by Service.Table
const (
	SourceAPI       = "api"
	SourceCache     = "cache"
	SourceSynthetic = "synthetic"
	SourceMixed     = "mixed"
)

const dateLayout = "2006-01-02"
