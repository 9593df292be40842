package location

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// ErrNoGeometry is returned for GeoJSON documents without a usable point or polygon
var ErrNoGeometry = errors.New("no point or polygon geometry found")

// Point is a single field location in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p Point) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lon)
}

// Validate checks the coordinate ranges
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %.5f out of range", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %.5f out of range", p.Lon)
	}
	return nil
}

type geoJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    *geoJSON        `json:"geometry"`
	Geometries  []geoJSON       `json:"geometries"`
	Features    []geoJSON       `json:"features"`
}

// Load reads a GeoJSON file and reduces it to a single field location
func Load(path string) (Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Point{}, fmt.Errorf("failed to read location file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return Point{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return p, nil
}

// Parse reduces a GeoJSON document to a single location. Polygons contribute their area-weighted
// centroid on the sphere; points are only used when the document has no polygon.
func Parse(data []byte) (Point, error) {
	var doc geoJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return Point{}, fmt.Errorf("invalid GeoJSON: %w", err)
	}

	var acc accumulator
	if err := acc.add(doc); err != nil {
		return Point{}, err
	}
	return acc.result()
}

type accumulator struct {
	area   r3.Vector // sum of area-scaled polygon centroids
	points r3.Vector // sum of unit point vectors
	nArea  int
	nPts   int
}

func (a *accumulator) add(g geoJSON) error {
	switch g.Type {
	case "FeatureCollection":
		for _, f := range g.Features {
			if err := a.add(f); err != nil {
				return err
			}
		}
	case "Feature":
		if g.Geometry != nil {
			return a.add(*g.Geometry)
		}
	case "GeometryCollection":
		for _, sub := range g.Geometries {
			if err := a.add(sub); err != nil {
				return err
			}
		}
	case "Point":
		var c []float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil {
			return fmt.Errorf("invalid Point coordinates: %w", err)
		}
		return a.addPoints([][]float64{c})
	case "MultiPoint":
		var c [][]float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil {
			return fmt.Errorf("invalid MultiPoint coordinates: %w", err)
		}
		return a.addPoints(c)
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return fmt.Errorf("invalid Polygon coordinates: %w", err)
		}
		return a.addPolygon(rings)
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return fmt.Errorf("invalid MultiPolygon coordinates: %w", err)
		}
		for _, rings := range polys {
			if err := a.addPolygon(rings); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported GeoJSON type %q", g.Type)
	}
	return nil
}

func (a *accumulator) addPoints(coords [][]float64) error {
	for _, c := range coords {
		pt, err := toS2(c)
		if err != nil {
			return err
		}
		a.points = a.points.Add(pt.Vector)
		a.nPts++
	}
	return nil
}

// addPolygon uses the outer ring only
func (a *accumulator) addPolygon(rings [][][]float64) error {
	if len(rings) == 0 {
		return nil
	}
	ring := rings[0]
	if n := len(ring); n > 1 && ring[0][0] == ring[n-1][0] && ring[0][1] == ring[n-1][1] {
		ring = ring[:n-1]
	}
	if len(ring) < 3 {
		return fmt.Errorf("polygon ring has %d distinct vertices, need 3", len(ring))
	}

	pts := make([]s2.Point, 0, len(ring))
	for _, c := range ring {
		pt, err := toS2(c)
		if err != nil {
			return err
		}
		if len(pts) > 0 && pts[len(pts)-1] == pt {
			continue
		}
		pts = append(pts, pt)
	}

	// a clockwise ring would describe the rest of the sphere
	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	a.area = a.area.Add(loop.Centroid().Vector)
	a.nArea++
	return nil
}

func (a *accumulator) result() (Point, error) {
	v := a.area
	if a.nArea == 0 {
		if a.nPts == 0 {
			return Point{}, ErrNoGeometry
		}
		v = a.points
	}
	if v.Norm() == 0 {
		return Point{}, fmt.Errorf("degenerate geometry: centroid is undefined")
	}

	ll := s2.LatLngFromPoint(s2.Point{Vector: v.Normalize()})
	return Point{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}, nil
}

// toS2 converts a GeoJSON position (lon, lat) into a point on the sphere
func toS2(c []float64) (s2.Point, error) {
	if len(c) < 2 {
		return s2.Point{}, fmt.Errorf("position needs longitude and latitude, got %v", c)
	}
	p := Point{Lat: c[1], Lon: c[0]}
	if err := p.Validate(); err != nil {
		return s2.Point{}, err
	}
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)), nil
}
