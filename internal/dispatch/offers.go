package dispatch

import (
	"github.com/example/ride-hail/internal/apperrors"
	"github.com/example/ride-hail/internal/models"
)

// ListOffers returns every order a driver may currently act on: all open
// orders, visible to any driver. The snapshot is consistent, so an order a
// concurrent accept just won cannot show up. Empty slice when nothing is open.
func (e *Engine) ListOffers(driverID string) ([]models.Order, error) {
	if driverID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	return e.Store.ListByStatus(models.StatusOpen), nil
}
