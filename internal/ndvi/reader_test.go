package ndvi

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ndvi.csv")
	content := `Date,NDVI,cloud
2024-10-20,0.21,3
2024-11-18T10:32:00Z,0.34,0
2024-12-15 10:30:00,0.41,12
not-a-date,0.5,0
2025-01-20,n/a,0
2025-02-22,0.62
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	obs, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, obs, 4)

	assert.Equal(t, time.Date(2024, time.October, 20, 0, 0, 0, 0, time.UTC), obs[0].Timestamp)
	assert.Equal(t, 0.21, obs[0].NDVI)
	assert.Equal(t, time.Date(2024, time.November, 18, 10, 32, 0, 0, time.UTC), obs[1].Timestamp)
	assert.Equal(t, time.Date(2024, time.December, 15, 10, 30, 0, 0, time.UTC), obs[2].Timestamp)
	assert.Equal(t, 0.62, obs[3].NDVI)
}

func TestRead_AlternateHeaders(t *testing.T) {
	obs, err := Read(strings.NewReader("value,timestamp\n0.3,2025-03-01\n"))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 0.3, obs[0].NDVI)

	obs, err = Read(strings.NewReader("time,ndvi_value\n2025-03-01,0.7\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.7, obs[0].NDVI)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(strings.NewReader("day,ndvi\n2025-03-01,0.3\n"))
	assert.ErrorContains(t, err, "missing date column")

	_, err = Read(strings.NewReader("date,evi\n2025-03-01,0.3\n"))
	assert.ErrorContains(t, err, "missing NDVI column")

	_, err = Read(strings.NewReader("date,ndvi\nbad,0.3\n"))
	assert.True(t, errors.Is(err, ErrNoObservations))

	_, err = Read(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
