package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ride-hail/internal/apperrors"
)

func demoService() *Service {
	return &Service{Store: NewMemoryStore(), TTL: time.Minute, DemoCode: "1234"}
}

func TestDemoSendVerifyConsumesCode(t *testing.T) {
	s := demoService()
	ctx := context.Background()
	if err := s.Send(ctx, "+77001234567"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.Verify(ctx, "+77001234567", "1234"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	// second verify with the same code must fail, the code was consumed
	if err := s.Verify(ctx, "+77001234567", "1234"); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected Unauthenticated on reuse, got %v", err)
	}
}

func TestWrongCodeKeepsPendingCode(t *testing.T) {
	s := demoService()
	ctx := context.Background()
	if err := s.Send(ctx, "+7700"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.Verify(ctx, "+7700", "9999"); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
	if err := s.Verify(ctx, "+7700", "1234"); err != nil {
		t.Fatalf("correct code after failed attempt: %v", err)
	}
}

func TestExpiredCodeRejected(t *testing.T) {
	s := &Service{Store: NewMemoryStore(), TTL: -time.Second, DemoCode: "1234"}
	ctx := context.Background()
	if err := s.Send(ctx, "+7700"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.Verify(ctx, "+7700", "1234"); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected Unauthenticated for expired code, got %v", err)
	}
}

func TestMissingPhoneIsInvalidInput(t *testing.T) {
	s := demoService()
	if err := s.Send(context.Background(), ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

type failingSender struct{ calls int }

func (f *failingSender) Deliver(ctx context.Context, phone, code string) error {
	f.calls++
	return errors.New("gateway down")
}

func TestFailedDeliveryStoresNothing(t *testing.T) {
	store := NewMemoryStore()
	s := &Service{Store: store, Sender: &failingSender{}, TTL: time.Minute, DemoCode: "1234"}
	ctx := context.Background()
	if err := s.Send(ctx, "+7700"); !errors.Is(err, apperrors.ErrUpstreamUnavailable) {
		t.Fatalf("expected UpstreamUnavailable, got %v", err)
	}
	if _, ok := store.Get(ctx, "+7700"); ok {
		t.Fatal("no code should be pending after a failed delivery")
	}
}

type recordingSender struct{ code string }

func (r *recordingSender) Deliver(ctx context.Context, phone, code string) error {
	r.code = code
	return nil
}

func TestDeliveredCodeIsVerifiable(t *testing.T) {
	sender := &recordingSender{}
	s := &Service{Store: NewMemoryStore(), Sender: sender, TTL: time.Minute, DemoCode: "1234"}
	ctx := context.Background()
	if err := s.Send(ctx, "+7700"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sender.code) != 4 {
		t.Fatalf("expected 4-digit code, got %q", sender.code)
	}
	if err := s.Verify(ctx, "+7700", sender.code); err != nil {
		t.Fatalf("verify delivered code: %v", err)
	}
}
