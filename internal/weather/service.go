package weather

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/smukkama/phenocover/internal/location"
	"github.com/smukkama/phenocover/internal/phenology"
)

// Table is a contiguous daily weather table and where it came from
type Table struct {
	Records    []phenology.WeatherRecord
	Source     string
	Backfilled int // days missing from the source and filled from the synthetic climatology
}

// Service produces the contiguous weather table the analysis core requires:
// cache first, then the provider, with the synthetic climatology filling whatever is left
type Service struct {
	provider Provider
	fallback Provider
	cache    TableCache
	offline  bool
}

// NewService wires a provider and an optional cache. With offline set the provider is never called.
func NewService(provider Provider, cache TableCache, offline bool) *Service {
	return &Service{provider: provider, fallback: Synthetic{}, cache: cache, offline: offline}
}

// Table returns one record per calendar day in [from, to]
func (s *Service) Table(ctx context.Context, loc location.Point, from, to time.Time) (*Table, error) {
	from, to = phenology.Day(from), phenology.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid weather range %s..%s", from.Format(dateLayout), to.Format(dateLayout))
	}

	if s.cache != nil {
		records, ok, err := s.cache.Get(ctx, loc, from, to)
		if err != nil {
			log.Printf("Weather cache unavailable: %v", err)
		} else if ok {
			return s.complete(loc, from, to, records, SourceCache), nil
		}
	}

	if s.offline || s.provider == nil {
		return s.synthetic(ctx, loc, from, to)
	}

	records, err := s.provider.Fetch(ctx, loc, from, to)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("Weather API failed, using synthetic climatology: %v", err)
		return s.synthetic(ctx, loc, from, to)
	}

	if s.cache != nil && len(records) > 0 {
		if err := s.cache.Set(ctx, loc, from, to, records); err != nil {
			log.Printf("Failed to cache weather: %v", err)
		}
	}
	return s.complete(loc, from, to, records, SourceAPI), nil
}

func (s *Service) synthetic(ctx context.Context, loc location.Point, from, to time.Time) (*Table, error) {
	records, err := s.fallback.Fetch(ctx, loc, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build synthetic weather: %w", err)
	}
	return s.complete(loc, from, to, records, SourceSynthetic), nil
}

// complete lays the records onto the calendar and backfills missing days
func (s *Service) complete(loc location.Point, from, to time.Time, records []phenology.WeatherRecord, source string) *Table {
	byDate := make(map[time.Time]phenology.WeatherRecord, len(records))
	for _, r := range records {
		d := phenology.Day(r.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		r.Date = d
		byDate[d] = r
	}

	t := &Table{Source: source}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		r, ok := byDate[d]
		if !ok {
			r = SyntheticDay(loc, d)
			t.Backfilled++
		}
		t.Records = append(t.Records, r)
	}

	if source != SourceSynthetic && t.Backfilled > 0 {
		if t.Backfilled == len(t.Records) {
			t.Source = SourceSynthetic
		} else {
			t.Source = SourceMixed
		}
		log.Printf("Backfilled %d of %d weather days from climatology", t.Backfilled, len(t.Records))
	}
	return t
}
