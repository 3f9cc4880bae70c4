package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/example/ride-hail/internal/apperrors"
	"github.com/example/ride-hail/internal/observability"
)

// CodeStore holds pending one-time codes keyed by phone. Codes expire after
// the configured TTL and are deleted on successful verification; a failed
// attempt leaves the code in place until it expires.
type CodeStore interface {
	Put(ctx context.Context, phone, code string, ttl time.Duration) error
	Get(ctx context.Context, phone string) (string, bool)
	Del(ctx context.Context, phone string)
}

// Sender delivers a code out of band. Implementations carry their own timeout;
// the service never holds shared state locked across a Deliver call.
type Sender interface {
	Deliver(ctx context.Context, phone, code string) error
}

// Service issues and verifies one-time codes. With no Sender configured it
// runs in demo mode: the fixed demo code is issued without any delivery.
type Service struct {
	Store    CodeStore
	Sender   Sender
	TTL      time.Duration
	DemoCode string
}

// Send issues a code for phone. The code is only stored once delivery is
// confirmed, so a failed SMS leaves no pending state behind.
func (s *Service) Send(ctx context.Context, phone string) error {
	if phone == "" {
		return fmt.Errorf("%w: phone required", apperrors.ErrInvalidInput)
	}
	code := s.DemoCode
	if s.Sender != nil {
		code = randomCode()
		if err := s.Sender.Deliver(ctx, phone, code); err != nil {
			observability.CodesFailed.Inc()
			return fmt.Errorf("%w: sms delivery: %v", apperrors.ErrUpstreamUnavailable, err)
		}
	}
	if err := s.Store.Put(ctx, phone, code, s.TTL); err != nil {
		return err
	}
	observability.CodesIssued.Inc()
	return nil
}

// Verify checks the pending code for phone and consumes it on a match.
// A wrong or expired code is Unauthenticated.
func (s *Service) Verify(ctx context.Context, phone, code string) error {
	if phone == "" || code == "" {
		return fmt.Errorf("%w: phone & code required", apperrors.ErrInvalidInput)
	}
	real, ok := s.Store.Get(ctx, phone)
	if !ok || real != code {
		return fmt.Errorf("%w: wrong code", apperrors.ErrUnauthenticated)
	}
	s.Store.Del(ctx, phone)
	return nil
}

func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "0000"
	}
	return fmt.Sprintf("%04d", n.Int64())
}
