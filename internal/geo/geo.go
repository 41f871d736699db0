// Package geo simulates caller positions around the operator for map display.
// Nothing here is a real geolocation source.
package geo

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

const (
	// DefaultOperatorLatitude and DefaultOperatorLongitude place the operator.
	DefaultOperatorLatitude  = 16.485475
	DefaultOperatorLongitude = 80.691727

	// DefaultRadiusKm bounds simulated caller offsets.
	DefaultRadiusKm = 10.0

	// KmPerDegree approximates the length of one degree of latitude or longitude.
	KmPerDegree = 111.0

	earthRadiusKm = 6371.0088
)

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the point with six decimals, about 10 cm of precision.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}

// Valid reports whether the point lies within latitude and longitude ranges.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180 &&
		!math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude)
}

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(a, b Point) float64 {
	lat1, lat2 := a.Latitude*math.Pi/180, b.Latitude*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Simulator produces caller positions near a fixed operator location.
// It is safe for concurrent use.
type Simulator struct {
	operator Point
	radiusKm float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator returns a Simulator. A nil rng is seeded from the runtime's
// random source; radiusKm <= 0 uses DefaultRadiusKm.
func NewSimulator(operator Point, radiusKm float64, rng *rand.Rand) *Simulator {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulator{operator: operator, radiusKm: radiusKm, rng: rng}
}

// NewSeededSimulator returns a Simulator with a deterministic random stream.
func NewSeededSimulator(operator Point, radiusKm float64, seed uint64) *Simulator {
	return NewSimulator(operator, radiusKm, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// OperatorLocation returns the fixed operator position.
func (s *Simulator) OperatorLocation() Point {
	return s.operator
}

// RadiusKm returns the default spoof radius.
func (s *Simulator) RadiusKm() float64 {
	return s.radiusKm
}

// SpoofCallerLocation offsets origin by independent uniform amounts in
// [-radiusKm/111, +radiusKm/111] degrees on each axis. The sampled region is
// a square in degree space, so corners can lie up to sqrt(2)*radiusKm away.
func (s *Simulator) SpoofCallerLocation(origin Point, radiusKm float64) Point {
	radiusDeg := radiusKm / KmPerDegree

	s.mu.Lock()
	latOffset := s.uniform(-radiusDeg, radiusDeg)
	lonOffset := s.uniform(-radiusDeg, radiusDeg)
	s.mu.Unlock()

	return Point{
		Latitude:  origin.Latitude + latOffset,
		Longitude: origin.Longitude + lonOffset,
	}
}

// SpoofNearOperator spoofs around the operator with the default radius.
func (s *Simulator) SpoofNearOperator() Point {
	return s.SpoofCallerLocation(s.operator, s.radiusKm)
}

// Digits returns n random decimal digits from the simulator's stream.
func (s *Simulator) Digits(n int) string {
	buf := make([]byte, n)
	s.mu.Lock()
	for i := range buf {
		buf[i] = byte('0' + s.rng.IntN(10))
	}
	s.mu.Unlock()
	return string(buf)
}

// uniform must be called with mu held.
func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}
