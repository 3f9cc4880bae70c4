package pricing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/example/ride-hail/internal/apperrors"
	"github.com/example/ride-hail/internal/models"
)

func TestHaversineZero(t *testing.T) {
	if d := Haversine(0, 0, 0, 0); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestQuoteZeroDistanceIsBaseFare(t *testing.T) {
	s := &Service{DefaultSpeedMps: 10}
	q, err := s.Quote(context.Background(), models.Coord{}, models.Coord{}, "")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.Price != BaseFare {
		t.Fatalf("expected base fare %v, got %v", BaseFare, q.Price)
	}
	if q.Class != DefaultClass {
		t.Fatalf("expected default class, got %q", q.Class)
	}
}

type fixedRouter struct {
	meters, seconds float64
	err             error
}

func (f *fixedRouter) Route(ctx context.Context, from, to models.Coord) (float64, float64, error) {
	return f.meters, f.seconds, f.err
}

func TestQuoteTariffArithmetic(t *testing.T) {
	s := &Service{Router: &fixedRouter{meters: 5200, seconds: 840}} // 5.2 km, 14 min
	q, err := s.Quote(context.Background(), models.Coord{}, models.Coord{Lat: 1}, "comfort")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	want := BaseFare + 5.2*PricePerKm + 14*PricePerMin
	if math.Abs(q.Price-want) > 1e-9 {
		t.Fatalf("expected price %v, got %v", want, q.Price)
	}
	if q.DistanceKm != 5.2 || q.Minutes != 14 {
		t.Fatalf("bad distance/minutes: %+v", q)
	}
	if q.Class != "comfort" {
		t.Fatalf("class not echoed: %q", q.Class)
	}
}

func TestQuoteRouterFailureIsUpstreamUnavailable(t *testing.T) {
	s := &Service{Router: &fixedRouter{err: errors.New("osrm down")}}
	_, err := s.Quote(context.Background(), models.Coord{}, models.Coord{Lat: 1}, "")
	if !errors.Is(err, apperrors.ErrUpstreamUnavailable) {
		t.Fatalf("expected UpstreamUnavailable, got %v", err)
	}
}
