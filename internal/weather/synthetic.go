package weather

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"time"

	"github.com/smukkama/phenocover/internal/location"
	"github.com/smukkama/phenocover/internal/phenology"
)

// Synthetic is a deterministic seasonal climatology used when no real weather is available.
// The same location and date always produce the same record.
type Synthetic struct{}

// Fetch implements Provider; it never fails and never skips a day
func (Synthetic) Fetch(_ context.Context, loc location.Point, from, to time.Time) ([]phenology.WeatherRecord, error) {
	start, end := phenology.Day(from), phenology.Day(to)
	var out []phenology.WeatherRecord
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, SyntheticDay(loc, d))
	}
	return out, nil
}

// SyntheticDay returns the climatological record for one day
func SyntheticDay(loc location.Point, date time.Time) phenology.WeatherRecord {
	date = phenology.Day(date)
	absLat := math.Abs(loc.Lat)

	// annual cycle peaking late July in the north and late January in the south
	peakDay := 200.0
	if loc.Lat < 0 {
		peakDay = 17
	}
	season := math.Cos(2 * math.Pi * (float64(date.YearDay()) - peakDay) / 365.25)

	meanAnnual := 27 - 0.35*absLat
	amplitude := math.Min(3+0.2*absLat, 18)

	u1, u2 := dayNoise(loc, date)
	tmean := meanAnnual + amplitude*season + 4*(u1-0.5)
	dtr := 8 + 4*u2 // diurnal temperature range

	precip := 0.0
	if u1 < 0.25-0.05*season { // slightly drier summers
		precip = 0.5 + 14*u2*u2
	}
	cloud := 30 + 30*u2
	if precip > 0 {
		cloud = 70 + 25*u2
	}

	return phenology.WeatherRecord{
		Date:             date,
		TemperatureMean:  round1(tmean),
		TemperatureMin:   round1(tmean - dtr/2),
		TemperatureMax:   round1(tmean + dtr/2),
		Precipitation:    round1(precip),
		RelativeHumidity: round1(65 - 10*season + 20*(u2-0.5)),
		Pressure:         round1(1013 - 6*(u1-0.5)),
		WindSpeed:        round1(2 + 4*u2),
		CloudCover:       round1(cloud),
	}
}

// dayNoise derives two uniform values in [0,1) from the location and date
func dayNoise(loc location.Point, date time.Time) (float64, float64) {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range []int64{int64(math.Round(loc.Lat * 100)), int64(math.Round(loc.Lon * 100)), date.Unix()} {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	sum := h.Sum64()
	return float64(sum>>40) / float64(1<<24), float64(sum&0xffffff) / float64(1<<24)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
