package store

import (
	"sync"

	"github.com/example/ride-hail/internal/observability"
)

// AvailabilityStore records driver-reported availability. The state machine
// never consults it; it exists for operators and the drivers_online gauge.
type AvailabilityStore struct {
	mu     sync.Mutex
	status map[string]string
}

func NewAvailabilityStore() *AvailabilityStore {
	return &AvailabilityStore{status: make(map[string]string)}
}

func (a *AvailabilityStore) Set(driverID, status string) {
	if status == "" {
		status = "offline"
	}
	a.mu.Lock()
	prev := a.status[driverID]
	a.status[driverID] = status
	a.mu.Unlock()

	if prev != "online" && status == "online" {
		observability.DriversOnline.Inc()
	} else if prev == "online" && status != "online" {
		observability.DriversOnline.Dec()
	}
}

func (a *AvailabilityStore) Get(driverID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.status[driverID]; ok {
		return s
	}
	return "offline"
}
