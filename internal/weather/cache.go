package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/phenocover/internal/location"
	"github.com/smukkama/phenocover/internal/phenology"
)

// TableCache stores fetched weather tables
type TableCache interface {
	Get(ctx context.Context, loc location.Point, from, to time.Time) ([]phenology.WeatherRecord, bool, error)
	Set(ctx context.Context, loc location.Point, from, to time.Time, records []phenology.WeatherRecord) error
}

// Cache keeps weather tables in Redis as JSON
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a Redis-backed table cache
func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: redisClient, ttl: ttl}
}

// CacheKey identifies a table by location (rounded to ~1 km) and date range
func CacheKey(loc location.Point, from, to time.Time) string {
	return fmt.Sprintf("weather:%.2f:%.2f:%s:%s", loc.Lat, loc.Lon, from.Format(dateLayout), to.Format(dateLayout))
}

// Get retrieves a cached table; the bool is false on a cache miss
func (c *Cache) Get(ctx context.Context, loc location.Point, from, to time.Time) ([]phenology.WeatherRecord, bool, error) {
	data, err := c.redis.Get(ctx, CacheKey(loc, from, to)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get weather from Redis: %w", err)
	}

	var records []phenology.WeatherRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached weather: %w", err)
	}
	return records, true, nil
}

// Set stores a table with the configured expiration
func (c *Cache) Set(ctx context.Context, loc location.Point, from, to time.Time, records []phenology.WeatherRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal weather: %w", err)
	}

	if err := c.redis.Set(ctx, CacheKey(loc, from, to), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set weather in Redis: %w", err)
	}
	return nil
}
