package phenology

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// InterpolationMethod selects how the sparse NDVI series is densified
type InterpolationMethod string

const (
	InterpLinear   InterpolationMethod = "linear"
	InterpCubic    InterpolationMethod = "cubic"
	InterpBalanced InterpolationMethod = "balanced"
)

// ParseInterpolationMethod validates a method name from configuration
func ParseInterpolationMethod(s string) (InterpolationMethod, error) {
	switch m := InterpolationMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case InterpLinear, InterpCubic, InterpBalanced:
		return m, nil
	case "":
		return InterpBalanced, nil
	default:
		return "", fmt.Errorf("%w: interpolation method %q (expected linear, cubic or balanced)", ErrUnknownMethod, s)
	}
}

// PrepareObservations sorts observations by timestamp and validates them against the season.
// Values within NDVITolerance of [0,1] are clamped; values further out are rejected.
// Timestamps are normalized to UTC; observations dated outside [sowing, harvest] are dropped.
func PrepareObservations(obs []Observation, sowing, harvest time.Time, p Params) ([]Observation, error) {
	start, end := Day(sowing), Day(harvest)
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: sowing %s, harvest %s", ErrInvalidSeason,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if len(obs) == 0 {
		return nil, ErrEmptyObservations
	}

	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := make([]Observation, 0, len(sorted))
	for _, o := range sorted {
		o.Timestamp = o.Timestamp.UTC()
		if math.IsNaN(o.NDVI) || o.NDVI < -p.NDVITolerance || o.NDVI > 1+p.NDVITolerance {
			return nil, fmt.Errorf("%w: %.4f at %s", ErrNDVIOutOfRange, o.NDVI, o.Timestamp.Format(time.RFC3339))
		}
		o.NDVI = clamp01(o.NDVI)

		d := Day(o.Timestamp)
		if d.Before(start) || d.After(end) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(o.Timestamp) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateObservation, o.Timestamp.Format(time.RFC3339))
		}
		out = append(out, o)
	}

	if len(out) == 0 {
		return nil, ErrEmptyObservations
	}
	return out, nil
}

// InterpolateNDVI produces one NDVI estimate per calendar day in [sowing, harvest].
// obs must already be prepared (sorted, validated, in season).
func InterpolateNDVI(obs []Observation, sowing, harvest time.Time, method InterpolationMethod, p Params) ([]NDVIDay, error) {
	if len(obs) == 0 {
		return nil, ErrEmptyObservations
	}
	start := Day(sowing)
	length := daysBetween(start, harvest)
	if length <= 0 {
		return nil, ErrInvalidSeason
	}

	xs := make([]float64, len(obs))
	ys := make([]float64, len(obs))
	for i, o := range obs {
		xs[i] = o.Timestamp.Sub(start).Hours() / 24
		ys[i] = o.NDVI
	}

	var estimate func(t float64) float64
	switch method {
	case InterpLinear:
		estimate = func(t float64) float64 { return linearAt(xs, ys, t) }
	case InterpCubic:
		s := newSpline(xs, ys)
		estimate = s.at
	case InterpBalanced:
		s := newSpline(xs, ys)
		ref := newReferenceCurve(xs, ys, float64(length))
		estimate = func(t float64) float64 {
			w := referenceWeight(xs, t, p)
			return (1-w)*s.at(t) + w*ref.at(t)
		}
	default:
		return nil, fmt.Errorf("%w: interpolation method %q", ErrUnknownMethod, method)
	}

	out := make([]NDVIDay, 0, length+1)
	for i := 0; i <= length; i++ {
		t := float64(i)
		v := clamp01(estimate(t))

		nearest, dist := nearestObservation(xs, t)
		width := confidenceWidth(v, ys[nearest], dist, p)

		out = append(out, NDVIDay{
			Date:  start.AddDate(0, 0, i),
			Value: v,
			Lower: clamp01(v - width),
			Upper: clamp01(v + width),
		})
	}
	return out, nil
}

// confidenceWidth is the half-width of the heuristic band: proportional to the disagreement with the
// nearest real observation, never below a baseline that itself widens with distance from that observation
func confidenceWidth(v, nearestValue, dist float64, p Params) float64 {
	baseline := p.BandBaseline
	if p.GapDays > 0 {
		baseline += p.BandGrowth * dist / p.GapDays
	}
	if p.BandMax > 0 && baseline > p.BandMax {
		baseline = p.BandMax
	}
	return math.Max(p.BandScale*math.Abs(v-nearestValue), baseline)
}

// nearestObservation returns the index of and distance in days to the observation closest to t
func nearestObservation(xs []float64, t float64) (int, float64) {
	i := sort.SearchFloat64s(xs, t)
	switch {
	case i == 0:
		return 0, math.Abs(xs[0] - t)
	case i == len(xs):
		return len(xs) - 1, math.Abs(t - xs[len(xs)-1])
	}
	if t-xs[i-1] <= xs[i]-t {
		return i - 1, t - xs[i-1]
	}
	return i, xs[i] - t
}

// linearAt interpolates piecewise-linearly, holding the endpoint values outside the observed span
func linearAt(xs, ys []float64, t float64) float64 {
	n := len(xs)
	if t <= xs[0] {
		return ys[0]
	}
	if t >= xs[n-1] {
		return ys[n-1]
	}
	i := sort.SearchFloat64s(xs, t)
	if xs[i] == t {
		return ys[i]
	}
	frac := (t - xs[i-1]) / (xs[i] - xs[i-1])
	return ys[i-1] + frac*(ys[i]-ys[i-1])
}

// spline is a natural cubic spline; beyond the knots it continues along the end tangents
type spline struct {
	xs, ys []float64
	m      []float64 // second derivatives at the knots
}

func newSpline(xs, ys []float64) *spline {
	n := len(xs)
	s := &spline{xs: xs, ys: ys, m: make([]float64, n)}
	if n < 3 {
		return s
	}

	// Tridiagonal system for the interior second derivatives, m[0] = m[n-1] = 0.
	h := make([]float64, n-1)
	for i := range h {
		h[i] = xs[i+1] - xs[i]
	}
	cp := make([]float64, n)
	dp := make([]float64, n)
	for i := 1; i < n-1; i++ {
		a := h[i-1]
		b := 2 * (h[i-1] + h[i])
		c := h[i]
		d := 6 * ((ys[i+1]-ys[i])/h[i] - (ys[i]-ys[i-1])/h[i-1])

		denom := b - a*cp[i-1]
		cp[i] = c / denom
		dp[i] = (d - a*dp[i-1]) / denom
	}
	for i := n - 2; i >= 1; i-- {
		s.m[i] = dp[i] - cp[i]*s.m[i+1]
	}
	return s
}

func (s *spline) at(t float64) float64 {
	xs, ys, m := s.xs, s.ys, s.m
	n := len(xs)
	if n == 1 {
		return ys[0]
	}

	if t < xs[0] {
		h := xs[1] - xs[0]
		slope := (ys[1]-ys[0])/h - h*(2*m[0]+m[1])/6
		return ys[0] + slope*(t-xs[0])
	}
	if t > xs[n-1] {
		h := xs[n-1] - xs[n-2]
		slope := (ys[n-1]-ys[n-2])/h + h*(m[n-2]+2*m[n-1])/6
		return ys[n-1] + slope*(t-xs[n-1])
	}

	i := sort.SearchFloat64s(xs, t)
	if i == 0 {
		return ys[0]
	}
	i-- // segment [xs[i], xs[i+1]]
	h := xs[i+1] - xs[i]
	a := (xs[i+1] - t) / h
	b := (t - xs[i]) / h
	return a*ys[i] + b*ys[i+1] + ((a*a*a-a)*m[i]+(b*b*b-b)*m[i+1])*h*h/6
}

// referenceCurve is the idealised growth shape: a smooth rise from the lowest observed value to the
// observed peak, a short plateau, then a smooth senescence back down by the end of the season
type referenceCurve struct {
	base, peak   float64
	peakAt       float64
	plateauEnd   float64
	seasonLength float64
}

func newReferenceCurve(xs, ys []float64, seasonLength float64) referenceCurve {
	r := referenceCurve{base: ys[0], peak: ys[0], peakAt: xs[0], seasonLength: seasonLength}
	for i, y := range ys {
		if y < r.base {
			r.base = y
		}
		if y > r.peak {
			r.peak = y
			r.peakAt = xs[i]
		}
	}
	plateau := math.Min(0.1*seasonLength, (seasonLength-r.peakAt)/3)
	if plateau < 0 {
		plateau = 0
	}
	r.plateauEnd = r.peakAt + plateau
	return r
}

func (r referenceCurve) at(t float64) float64 {
	switch {
	case t <= r.peakAt:
		if r.peakAt <= 0 {
			return r.peak
		}
		return r.base + (r.peak-r.base)*smoothstep(t/r.peakAt)
	case t <= r.plateauEnd:
		return r.peak
	}
	rest := r.seasonLength - r.plateauEnd
	if rest <= 0 {
		return r.peak
	}
	return r.peak - (r.peak-r.base)*smoothstep((t-r.plateauEnd)/rest)
}

// referenceWeight is how far the balanced estimate leans toward the reference curve at t.
// It is zero inside gaps no longer than GapDays and grows with distance from the nearest
// observation inside longer gaps and outside the observed span.
func referenceWeight(xs []float64, t float64, p Params) float64 {
	if p.GapDays <= 0 || p.MaxReferenceWeight <= 0 {
		return 0
	}

	n := len(xs)
	var dist float64
	switch {
	case t < xs[0]:
		dist = xs[0] - t
	case t > xs[n-1]:
		dist = t - xs[n-1]
	default:
		i := sort.SearchFloat64s(xs, t)
		if i == 0 || xs[i] == t {
			return 0
		}
		if xs[i]-xs[i-1] <= p.GapDays {
			return 0
		}
		dist = math.Min(t-xs[i-1], xs[i]-t)
	}
	return p.MaxReferenceWeight * smoothstep(dist/p.GapDays)
}

func smoothstep(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x * x * (3 - 2*x)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
