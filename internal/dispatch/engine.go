package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/ride-hail/internal/apperrors"
	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/observability"
	"github.com/example/ride-hail/internal/store"
)

// Publisher is where the engine announces successful transitions.
type Publisher interface {
	Publish(e models.Event)
}

// Payments holds funds when a driver accepts, captures on completion and
// releases on cancellation. All calls are best-effort side effects.
type Payments interface {
	Hold(ctx context.Context, amount int64, currency, customerID string) (string, error)
	Capture(ctx context.Context, paymentIntentID string) error
	Cancel(ctx context.Context, paymentIntentID string) error
}

// Notifier pushes a freshly opened order towards driver apps.
type Notifier interface {
	OfferOpened(o models.Order)
}

// Engine is the order state machine. Every mutation of an order goes through
// here: the store serializes transitions per order id, the engine enforces the
// transition graph and its guards, and each successful transition publishes an
// order_status event while the order's lock is still held, so events for one
// order always go out in transition order.
type Engine struct {
	Store    *store.OrderStore
	Bus      Publisher
	Archive  store.Archive // optional
	Payments Payments      // optional
	Notifier Notifier      // optional
	Logger   *slog.Logger
}

// CreateOrder opens a new order owned by the rider.
func (e *Engine) CreateOrder(ctx context.Context, riderID string, req models.OrderRequest) (models.Order, error) {
	if riderID == "" {
		return models.Order{}, apperrors.ErrUnauthenticated
	}
	if req.From == nil || req.To == nil {
		return models.Order{}, fmt.Errorf("%w: from/to required", apperrors.ErrInvalidInput)
	}
	if req.Price < 0 {
		return models.Order{}, fmt.Errorf("%w: negative price", apperrors.ErrInvalidInput)
	}
	now := time.Now()
	o := models.Order{
		ID:        models.NewID(),
		RiderID:   riderID,
		Status:    models.StatusOpen,
		Pickup:    *req.From,
		Dest:      *req.To,
		Price:     req.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.Store.Create(o)
	observability.OrdersCreated.Inc()
	e.Bus.Publish(models.OrderStatusEvent(o.ID, o.Status))
	if e.Archive != nil {
		if err := e.Archive.SaveOrder(o); err != nil {
			e.Logger.Warn("order archive insert failed", "order_id", o.ID, "error", err)
		}
	}
	if e.Notifier != nil {
		go e.Notifier.OfferOpened(o)
	}
	return o, nil
}

// GetOrder returns the current snapshot.
func (e *Engine) GetOrder(id string) (models.Order, error) {
	return e.Store.Get(id)
}

// Cancel moves the order to cancelled. Legal from open (owning rider only)
// and from assigned/en_route (owning rider or assigned driver).
func (e *Engine) Cancel(ctx context.Context, id, actorID string) (models.Order, error) {
	o, err := e.transition(id, func(o models.Order) (models.Order, error) {
		switch o.Status {
		case models.StatusOpen:
			if actorID != o.RiderID {
				return o, apperrors.ErrForbidden
			}
		case models.StatusAssigned, models.StatusEnRoute:
			if actorID != o.RiderID && actorID != o.DriverID {
				return o, apperrors.ErrForbidden
			}
		default:
			return o, apperrors.ErrInvalidTransition
		}
		o.Status = models.StatusCancelled
		return o, nil
	})
	if err != nil {
		return models.Order{}, err
	}
	e.releaseHold(ctx, o)
	return o, nil
}

// Accept assigns the order to the driver. First accept wins: any concurrent
// transition that already moved the order out of open surfaces as Conflict.
func (e *Engine) Accept(ctx context.Context, id, driverID string) (models.Order, error) {
	if driverID == "" {
		return models.Order{}, apperrors.ErrUnauthenticated
	}
	o, err := e.transition(id, func(o models.Order) (models.Order, error) {
		if o.Status != models.StatusOpen {
			return o, apperrors.ErrConflict
		}
		o.Status = models.StatusAssigned
		o.DriverID = driverID
		return o, nil
	})
	if err != nil {
		return models.Order{}, err
	}
	e.holdPayment(ctx, o)
	return o, nil
}

// ReportStatus applies a driver-reported trip status. Only strict forward
// moves are accepted: assigned -> en_route|completed, en_route -> completed.
func (e *Engine) ReportStatus(ctx context.Context, id, driverID string, next models.OrderStatus) (models.Order, error) {
	if !next.Valid() || (next != models.StatusEnRoute && next != models.StatusCompleted) {
		return models.Order{}, fmt.Errorf("%w: status %q", apperrors.ErrInvalidInput, next)
	}
	o, err := e.transition(id, func(o models.Order) (models.Order, error) {
		if o.DriverID == "" || o.DriverID != driverID {
			return o, apperrors.ErrForbidden
		}
		if !forwardMove(o.Status, next) {
			return o, apperrors.ErrInvalidTransition
		}
		o.Status = next
		return o, nil
	})
	if err != nil {
		return models.Order{}, err
	}
	if o.Status == models.StatusCompleted {
		e.capturePayment(ctx, o)
	}
	return o, nil
}

func forwardMove(from, to models.OrderStatus) bool {
	switch from {
	case models.StatusAssigned:
		return to == models.StatusEnRoute || to == models.StatusCompleted
	case models.StatusEnRoute:
		return to == models.StatusCompleted
	}
	return false
}

// transition runs fn under the order's lock, stamps UpdatedAt, records the
// metric and publishes the status event before the lock is released.
func (e *Engine) transition(id string, fn func(o models.Order) (models.Order, error)) (models.Order, error) {
	o, err := e.Store.Transition(id, func(o models.Order) (models.Order, error) {
		next, err := fn(o)
		if err != nil {
			return o, err
		}
		next.UpdatedAt = time.Now()
		observability.Transitions.WithLabelValues(string(next.Status)).Inc()
		e.Bus.Publish(models.OrderStatusEvent(next.ID, next.Status))
		return next, nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			observability.TransitionConflicts.Inc()
		}
		return models.Order{}, err
	}
	if e.Archive != nil {
		if aerr := e.Archive.UpdateOrder(o); aerr != nil {
			e.Logger.Warn("order archive update failed", "order_id", o.ID, "error", aerr)
		}
	}
	return o, nil
}

func (e *Engine) holdPayment(ctx context.Context, o models.Order) {
	if e.Payments == nil || o.Price <= 0 {
		return
	}
	piID, err := e.Payments.Hold(ctx, int64(o.Price), "kzt", "")
	if err != nil {
		e.Logger.Warn("payment hold failed", "order_id", o.ID, "error", err)
		return
	}
	_, _ = e.Store.Transition(o.ID, func(o models.Order) (models.Order, error) {
		o.PaymentID = piID
		return o, nil
	})
}

func (e *Engine) capturePayment(ctx context.Context, o models.Order) {
	if e.Payments == nil || o.PaymentID == "" {
		return
	}
	if err := e.Payments.Capture(ctx, o.PaymentID); err != nil {
		e.Logger.Warn("payment capture failed", "order_id", o.ID, "error", err)
	}
}

func (e *Engine) releaseHold(ctx context.Context, o models.Order) {
	if e.Payments == nil || o.PaymentID == "" {
		return
	}
	if err := e.Payments.Cancel(ctx, o.PaymentID); err != nil {
		e.Logger.Warn("payment release failed", "order_id", o.ID, "error", err)
	}
}
