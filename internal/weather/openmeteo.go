package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smukkama/phenocover/internal/location"
	"github.com/smukkama/phenocover/internal/phenology"
)

var dailyVariables = []string{
	"temperature_2m_mean",
	"temperature_2m_min",
	"temperature_2m_max",
	"precipitation_sum",
	"relative_humidity_2m_mean",
	"surface_pressure_mean",
	"wind_speed_10m_mean",
	"cloud_cover_mean",
}

// OpenMeteoClient reads historical daily weather from the Open-Meteo archive API
type OpenMeteoClient struct {
	baseURL string
	client  *http.Client
	retries int
	backoff time.Duration
}

// NewOpenMeteoClient creates a client; retries is the number of extra attempts after a failure
func NewOpenMeteoClient(baseURL string, timeout time.Duration, retries int) *OpenMeteoClient {
	if retries < 0 {
		retries = 0
	}
	return &OpenMeteoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		backoff: time.Second,
	}
}

type archiveResponse struct {
	Daily map[string]json.RawMessage `json:"daily"`
}

// Fetch implements Provider
func (c *OpenMeteoClient) Fetch(ctx context.Context, loc location.Point, from, to time.Time) ([]phenology.WeatherRecord, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', 5, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', 5, 64))
	q.Set("start_date", from.Format(dateLayout))
	q.Set("end_date", to.Format(dateLayout))
	q.Set("daily", strings.Join(dailyVariables, ","))
	q.Set("timezone", "auto")
	endpoint := c.baseURL + "/v1/archive?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.backoff
			log.Printf("Weather API attempt %d failed (%v), retrying in %s", attempt, lastErr, wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, retryable, err := c.get(ctx, endpoint)
		if err == nil {
			return decodeArchive(body)
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, fmt.Errorf("weather API request failed: %w", lastErr)
}

func (c *OpenMeteoClient) get(ctx context.Context, endpoint string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("non-2xx: %s, body: %s", resp.Status, strings.TrimSpace(string(data)))
		return nil, resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests, err
	}
	return data, false, nil
}

// decodeArchive converts the column-oriented daily block into records.
// A day with a null min/max temperature or precipitation is treated as missing.
func decodeArchive(body []byte) ([]phenology.WeatherRecord, error) {
	var resp archiveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	var dates []string
	if err := json.Unmarshal(resp.Daily["time"], &dates); err != nil {
		return nil, fmt.Errorf("decode weather dates: %w", err)
	}

	columns := make(map[string][]*float64, len(dailyVariables))
	for _, name := range dailyVariables {
		raw, ok := resp.Daily[name]
		if !ok {
			continue
		}
		var col []*float64
		if err := json.Unmarshal(raw, &col); err != nil {
			return nil, fmt.Errorf("decode weather column %s: %w", name, err)
		}
		if len(col) != len(dates) {
			return nil, fmt.Errorf("weather column %s has %d values for %d dates", name, len(col), len(dates))
		}
		columns[name] = col
	}

	value := func(name string, i int) (float64, bool) {
		col := columns[name]
		if col == nil || col[i] == nil {
			return 0, false
		}
		return *col[i], true
	}

	records := make([]phenology.WeatherRecord, 0, len(dates))
	for i, d := range dates {
		date, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("invalid weather date %q: %w", d, err)
		}

		tmin, okMin := value("temperature_2m_min", i)
		tmax, okMax := value("temperature_2m_max", i)
		precip, okPrecip := value("precipitation_sum", i)
		if !okMin || !okMax || !okPrecip {
			continue
		}
		tmean, ok := value("temperature_2m_mean", i)
		if !ok {
			tmean = (tmin + tmax) / 2
		}
		rh, _ := value("relative_humidity_2m_mean", i)
		pressure, _ := value("surface_pressure_mean", i)
		wind, _ := value("wind_speed_10m_mean", i)
		cloud, _ := value("cloud_cover_mean", i)

		records = append(records, phenology.WeatherRecord{
			Date:             date,
			TemperatureMean:  tmean,
			TemperatureMin:   tmin,
			TemperatureMax:   tmax,
			Precipitation:    precip,
			RelativeHumidity: rh,
			Pressure:         pressure,
			WindSpeed:        wind,
			CloudCover:       cloud,
		})
	}

	return records, nil
}
