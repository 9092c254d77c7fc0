package inventory

import (
	"context"
	"sync"
	"time"
)

// MemoryThrottle limitador de alertas en proceso, usado cuando no hay Redis.
type MemoryThrottle struct {
	mu    sync.Mutex
	ttl   time.Duration
	until map[string]time.Time
	now   func() time.Time
}

var _ AlertThrottle = (*MemoryThrottle)(nil)

// NewMemoryThrottle construye el limitador con la ventana indicada.
func NewMemoryThrottle(ttl time.Duration) *MemoryThrottle {
	return &MemoryThrottle{ttl: ttl, until: map[string]time.Time{}, now: time.Now}
}

// Allow registra la clave por ttl; false si ya estaba vigente.
func (t *MemoryThrottle) Allow(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if exp, ok := t.until[key]; ok && now.Before(exp) {
		return false, nil
	}
	t.until[key] = now.Add(t.ttl)
	return true, nil
}

// Reset elimina la clave; true si estaba vigente.
func (t *MemoryThrottle) Reset(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	exp, ok := t.until[key]
	delete(t.until, key)
	return ok && t.now().Before(exp), nil
}
