package pricing

import (
	"context"
	"fmt"
	"math"

	"github.com/example/ride-hail/internal/apperrors"
	"github.com/example/ride-hail/internal/models"
)

// Linear tariff: base fare plus per-km and per-minute components.
const (
	BaseFare     = 400.0
	PricePerKm   = 100.0
	PricePerMin  = 25.0
	DefaultClass = "econom"
)

// Router estimates road distance and duration between two points.
// The naive estimator is used when no router is configured.
type Router interface {
	Route(ctx context.Context, from, to models.Coord) (meters, seconds float64, err error)
}

type Service struct {
	Router          Router
	DefaultSpeedMps float64
}

// Quote prices a trip. With a router configured its failure surfaces as
// UpstreamUnavailable rather than silently falling back, so callers can tell
// a degraded quote path from a healthy one.
func (s *Service) Quote(ctx context.Context, from, to models.Coord, class string) (models.Quote, error) {
	var meters, seconds float64
	if s.Router != nil {
		m, sec, err := s.Router.Route(ctx, from, to)
		if err != nil {
			return models.Quote{}, fmt.Errorf("%w: routing: %v", apperrors.ErrUpstreamUnavailable, err)
		}
		meters, seconds = m, sec
	} else {
		meters = Haversine(from.Lat, from.Lon, to.Lat, to.Lon)
		speed := s.DefaultSpeedMps
		if speed <= 0 {
			speed = 8.0 // ~28.8 km/h default city speed
		}
		seconds = meters / speed
	}
	km := meters / 1000.0
	mins := seconds / 60.0
	if class == "" {
		class = DefaultClass
	}
	return models.Quote{
		DistanceKm: km,
		Minutes:    mins,
		Price:      BaseFare + km*PricePerKm + mins*PricePerMin,
		Class:      class,
	}, nil
}

// Haversine distance in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
