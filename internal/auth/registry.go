package auth

import (
	"sync"

	"github.com/example/ride-hail/internal/models"
)

// Registry maps phone numbers to stable identities. An identity is minted on
// first successful code verification and never destroyed.
type Registry struct {
	mu    sync.Mutex
	byKey map[string]string
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]string)}
}

// Ensure returns the identity for phone, minting one if absent.
func (r *Registry) Ensure(phone string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[phone]; ok {
		return id
	}
	id := models.NewID()
	r.byKey[phone] = id
	return id
}
