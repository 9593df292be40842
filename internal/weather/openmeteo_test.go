package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/phenocover/internal/location"
)

const archiveBody = `{
  "latitude": 45.0,
  "longitude": 7.6,
  "daily": {
    "time": ["2024-10-01", "2024-10-02", "2024-10-03"],
    "temperature_2m_mean": [14.2, null, 12.0],
    "temperature_2m_min": [9.1, 8.0, null],
    "temperature_2m_max": [19.5, 17.0, 15.1],
    "precipitation_sum": [0.0, 3.2, 1.0],
    "relative_humidity_2m_mean": [71, 80, 77],
    "surface_pressure_mean": [1012.4, 1008.9, 1010.0],
    "wind_speed_10m_mean": [6.1, 9.3, 4.0],
    "cloud_cover_mean": [20, 95, 60]
  }
}`

var (
	testLoc  = location.Point{Lat: 45.0, Lon: 7.6}
	testFrom = time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)
)

func TestOpenMeteoClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/archive", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "45.00000", q.Get("latitude"))
		assert.Equal(t, "2024-10-01", q.Get("start_date"))
		assert.Equal(t, "2024-10-03", q.Get("end_date"))
		assert.Contains(t, q.Get("daily"), "precipitation_sum")
		w.Write([]byte(archiveBody))
	}))
	defer server.Close()

	client := NewOpenMeteoClient(server.URL+"/", 5*time.Second, 0)
	records, err := client.Fetch(context.Background(), testLoc, testFrom, testFrom.AddDate(0, 0, 2))
	require.NoError(t, err)

	// the third day has no minimum temperature and is dropped
	require.Len(t, records, 2)
	assert.Equal(t, testFrom, records[0].Date)
	assert.Equal(t, 14.2, records[0].TemperatureMean)
	assert.Equal(t, 1012.4, records[0].Pressure)
	assert.Equal(t, 12.5, records[1].TemperatureMean, "missing mean derived from min and max")
	assert.Equal(t, 3.2, records[1].Precipitation)
}

func TestOpenMeteoClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(archiveBody))
	}))
	defer server.Close()

	client := NewOpenMeteoClient(server.URL, 5*time.Second, 3)
	client.backoff = time.Millisecond

	records, err := client.Fetch(context.Background(), testLoc, testFrom, testFrom.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOpenMeteoClient_ClientErrorIsFinal(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":true,"reason":"bad date"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewOpenMeteoClient(server.URL, 5*time.Second, 3)
	client.backoff = time.Millisecond

	_, err := client.Fetch(context.Background(), testLoc, testFrom, testFrom)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad date")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDecodeArchive_Malformed(t *testing.T) {
	_, err := decodeArchive([]byte(`{"daily": {"time": ["2024-10-01"], "temperature_2m_min": [1, 2]}}`))
	assert.Error(t, err)

	_, err = decodeArchive([]byte(`{"daily": {"time": ["01/10/2024"], "temperature_2m_min": [1], "temperature_2m_max": [2], "precipitation_sum": [0]}}`))
	assert.Error(t, err)
}
