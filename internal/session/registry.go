// Package session keeps the cart and favorites stores of active shopper
// sessions so that each is loaded from storage once.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/example/licorice-storefront/internal/domain/cart"
	"github.com/example/licorice-storefront/internal/domain/events"
	"github.com/example/licorice-storefront/internal/domain/favorites"
	"github.com/example/licorice-storefront/internal/infrastructure/store"
	"github.com/example/licorice-storefront/internal/logger"
)

type entry struct {
	cart      *cart.Store
	favorites *favorites.Store
	lastSeen  time.Time
}

// Registry maps session IDs to their opened stores
type Registry struct {
	mu        sync.Mutex
	storage   store.Storage
	publisher events.Publisher
	sessions  map[string]*entry
	now       func() time.Time
}

func NewRegistry(storage store.Storage, publisher events.Publisher) *Registry {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Registry{
		storage:   storage,
		publisher: publisher,
		sessions:  make(map[string]*entry),
		now:       time.Now,
	}
}

func (r *Registry) touch(sessionID string) *entry {
	e, ok := r.sessions[sessionID]
	if !ok {
		e = &entry{}
		r.sessions[sessionID] = e
	}
	e.lastSeen = r.now()
	return e
}

// Cart returns the cart of sessionID, opening it on first use
func (r *Registry) Cart(ctx context.Context, sessionID string) *cart.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.touch(sessionID)
	if e.cart == nil {
		e.cart = cart.Open(ctx, sessionID, r.storage, cart.WithPublisher(r.publisher))
	}
	return e.cart
}

// Favorites returns the favorites of sessionID, opening them on first use
func (r *Registry) Favorites(ctx context.Context, sessionID string) *favorites.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.touch(sessionID)
	if e.favorites == nil {
		e.favorites = favorites.Open(ctx, sessionID, r.storage, favorites.WithPublisher(r.publisher))
	}
	return e.favorites
}

// Len returns the number of sessions held in memory
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops sessions idle for longer than idle. Their state stays in
// storage and is loaded again on the next request.
func (r *Registry) Evict(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	evicted := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// RunEviction calls Evict every interval until ctx is done
func (r *Registry) RunEviction(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(idle); n > 0 {
				logger.Debug(ctx).Int("evicted", n).Int("active", r.Len()).Msg("Evicted idle sessions")
			}
		}
	}
}
