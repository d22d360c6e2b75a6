// Package favorites keeps a shopper's liked products and the notification log
// that favoriting feeds.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/example/licorice-storefront/internal/domain/events"
	"github.com/example/licorice-storefront/internal/domain/product"
	"github.com/example/licorice-storefront/internal/infrastructure/store"
	"github.com/example/licorice-storefront/internal/logger"
	"github.com/example/licorice-storefront/internal/metrics"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProduct          = errors.New("product id is required")
	ErrInvalidNotificationType = errors.New("unknown notification type")
)

// FavoriteProduct is a liked product. The list holds at most one entry per ID.
type FavoriteProduct struct {
	ID            product.ID       `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	Image         string           `json:"image"`
}

func FavoritesKey(sessionID string) string {
	return "session:" + sessionID + ":favorites"
}

func NotificationsKey(sessionID string) string {
	return "session:" + sessionID + ":notifications"
}

// Store owns one shopper's favorites and notifications, mirroring both to
// storage on every change.
type Store struct {
	mu            sync.Mutex
	id            string
	storage       store.Storage
	publisher     events.Publisher
	now           func() time.Time
	favorites     []FavoriteProduct
	notifications []Notification
}

type Option func(*Store)

func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithClock overrides the time source used for notification IDs and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open loads favorites and notifications of sessionID once.
func Open(ctx context.Context, sessionID string, storage store.Storage, opts ...Option) *Store {
	s := &Store{
		id:        sessionID,
		storage:   storage,
		publisher: events.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.favorites = loadList[FavoriteProduct](ctx, storage, FavoritesKey(sessionID))
	s.notifications = loadList[Notification](ctx, storage, NotificationsKey(sessionID))
	s.favorites = dedupe(s.favorites)
	return s
}

func loadList[T any](ctx context.Context, storage store.Storage, key string) []T {
	raw, ok, err := storage.Get(ctx, key)
	if err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("favorites", "load").Inc()
		logger.Error(ctx).Err(err).Str("key", key).Msg("Failed to load favorites state, starting empty")
		return []T{}
	}
	if !ok || len(raw) == 0 {
		return []T{}
	}

	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("favorites", "load").Inc()
		logger.Error(ctx).Err(err).Str("key", key).Msg("Malformed favorites state in storage, starting empty")
		return []T{}
	}
	if list == nil {
		return []T{}
	}
	return list
}

func dedupe(list []FavoriteProduct) []FavoriteProduct {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, fav := range list {
		if fav.ID.IsZero() || seen[fav.ID.String()] {
			continue
		}
		seen[fav.ID.String()] = true
		out = append(out, fav)
	}
	return out
}

func (s *Store) saveFavorites(ctx context.Context) {
	s.save(ctx, FavoritesKey(s.id), s.favorites)
}

func (s *Store) saveNotifications(ctx context.Context) {
	s.save(ctx, NotificationsKey(s.id), s.notifications)
}

func (s *Store) save(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err == nil {
		err = s.storage.Set(ctx, key, raw)
	}
	if err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("favorites", "save").Inc()
		logger.Error(ctx).Err(err).Str("key", key).Msg("Failed to persist favorites state")
	}
}

func (s *Store) publish(ctx context.Context, eventType string, data any) {
	metrics.CartMutationsTotal.WithLabelValues("favorites", eventType).Inc()

	event, err := events.New(s.id, eventType, data)
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		logger.Warn(ctx).Err(err).Str("event_type", eventType).Msg("Failed to publish favorites event")
	}
}

func (s *Store) indexOf(id product.ID) int {
	for i, fav := range s.favorites {
		if fav.ID.String() == id.String() {
			return i
		}
	}
	return -1
}

// Add likes p. Adding a product that is already a favorite does nothing;
// otherwise a favorite notification is logged.
func (s *Store) Add(ctx context.Context, p product.Product) {
	if p.ID.IsZero() {
		logger.Error(ctx).Err(ErrInvalidProduct).Str("name", p.Name).Msg("Ignoring add to favorites")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(p.ID) >= 0 {
		return
	}

	s.favorites = append(s.favorites, FavoriteProduct{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Discount:      p.Discount,
		Image:         p.Image,
	})
	s.saveFavorites(ctx)

	s.addNotificationLocked(ctx, NotificationFavorite, fmt.Sprintf("%s was added to your favorites", p.Name))

	s.publish(ctx, EventFavoriteAdded, FavoriteAdded{
		SessionID: s.id,
		ProductID: p.ID.String(),
		Name:      p.Name,
		AddedAt:   s.now(),
	})
}

// Remove unlikes the product with the given ID
func (s *Store) Remove(ctx context.Context, id product.ID) {
	if id.IsZero() {
		logger.Error(ctx).Err(ErrInvalidProduct).Msg("Ignoring remove from favorites")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.favorites[:0]
	for _, fav := range s.favorites {
		if fav.ID.String() != id.String() {
			kept = append(kept, fav)
		}
	}
	s.favorites = kept
	s.saveFavorites(ctx)

	s.publish(ctx, EventFavoriteRemoved, FavoriteRemoved{
		SessionID: s.id,
		ProductID: id.String(),
		RemovedAt: s.now(),
	})
}

func (s *Store) IsFavorite(id product.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// List returns a copy of the favorites in the order they were added
func (s *Store) List() []FavoriteProduct {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]FavoriteProduct, len(s.favorites))
	copy(out, s.favorites)
	return out
}

// AddNotification prepends an unread notification to the log
func (s *Store) AddNotification(ctx context.Context, typ NotificationType, message string) (Notification, error) {
	if !typ.Valid() {
		return Notification{}, fmt.Errorf("%w: %q", ErrInvalidNotificationType, typ)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addNotificationLocked(ctx, typ, message), nil
}

func (s *Store) addNotificationLocked(ctx context.Context, typ NotificationType, message string) Notification {
	now := s.now()
	id := strconv.FormatInt(now.UnixNano(), 10)
	// IDs derive from the clock; keep them unique when two land on the same tick.
	for s.notificationIndex(id) >= 0 {
		now = now.Add(time.Nanosecond)
		id = strconv.FormatInt(now.UnixNano(), 10)
	}

	n := Notification{
		ID:        id,
		Type:      typ,
		Message:   message,
		CreatedAt: now,
		Read:      false,
	}
	s.notifications = append([]Notification{n}, s.notifications...)
	s.saveNotifications(ctx)
	return n
}

func (s *Store) notificationIndex(id string) int {
	for i, n := range s.notifications {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// MarkAsRead flags one notification as read. It reports whether the
// notification exists.
func (s *Store) MarkAsRead(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.notificationIndex(id)
	if i < 0 {
		return false
	}
	s.notifications[i].Read = true
	s.saveNotifications(ctx)
	return true
}

// ClearNotifications empties the notification log
func (s *Store) ClearNotifications(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = []Notification{}
	s.saveNotifications(ctx)
}

// Notifications returns the log, newest first
func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// HasUnread reports whether any notification is unread
func (s *Store) HasUnread() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if !n.Read {
			return true
		}
	}
	return false
}
