package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/example/licorice-storefront/internal/domain/events"
	"github.com/example/licorice-storefront/internal/domain/product"
	"github.com/example/licorice-storefront/internal/infrastructure/store"
	"github.com/example/licorice-storefront/internal/logger"
	"github.com/example/licorice-storefront/internal/metrics"
	"github.com/example/licorice-storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

const AggregateType = "Cart"

var ErrInvalidProduct = errors.New("product id is required")

var (
	FlatShipping        = decimal.RequireFromString("5.99")
	FreeShippingMinimum = decimal.NewFromInt(50)
	TaxRate             = decimal.RequireFromString("0.08")
)

// CartItem is one line of the cart. Quantity is always >= 1.
type CartItem struct {
	ID            product.ID       `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	Image         string           `json:"image"`
	Quantity      int              `json:"quantity"`
}

// LineTotal is Price x Quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StorageKey is the persistence key of the cart owned by sessionID
func StorageKey(sessionID string) string {
	return "session:" + sessionID + ":cart"
}

// Store owns one shopper's cart. Every mutation is mirrored to storage; the
// mirror is read back only once, in Open.
type Store struct {
	mu        sync.Mutex
	id        string
	key       string
	storage   store.Storage
	publisher events.Publisher
	items     []CartItem
}

type Option func(*Store)

// WithPublisher publishes a domain event for every mutation
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// Open loads the cart of sessionID from storage. Missing or malformed state
// yields an empty cart.
func Open(ctx context.Context, sessionID string, storage store.Storage, opts ...Option) *Store {
	s := &Store{
		id:        sessionID,
		key:       StorageKey(sessionID),
		storage:   storage,
		publisher: events.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.items = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []CartItem {
	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("cart", "load").Inc()
		logger.Error(ctx).Err(err).Str("key", s.key).Msg("Failed to load cart, starting empty")
		return []CartItem{}
	}
	if !ok || len(raw) == 0 {
		return []CartItem{}
	}

	var stored []CartItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("cart", "load").Inc()
		logger.Error(ctx).Err(err).Str("key", s.key).Msg("Malformed cart in storage, starting empty")
		return []CartItem{}
	}

	items := make([]CartItem, 0, len(stored))
	for _, item := range stored {
		if item.ID.IsZero() || item.Quantity <= 0 {
			continue
		}
		items = append(items, item)
	}
	return items
}

// save mirrors the current items. Failures are logged, never returned.
func (s *Store) save(ctx context.Context) {
	raw, err := json.Marshal(s.items)
	if err == nil {
		err = s.storage.Set(ctx, s.key, raw)
	}
	if err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("cart", "save").Inc()
		logger.Error(ctx).Err(err).Str("key", s.key).Msg("Failed to persist cart")
	}
}

func (s *Store) publish(ctx context.Context, eventType string, data any) {
	metrics.CartMutationsTotal.WithLabelValues("cart", eventType).Inc()

	event, err := events.New(s.id, eventType, data)
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		logger.Warn(ctx).Err(err).Str("event_type", eventType).Msg("Failed to publish cart event")
	}
}

func (s *Store) indexOf(id product.ID) int {
	for i, item := range s.items {
		if item.ID.String() == id.String() {
			return i
		}
	}
	return -1
}

// Add puts one unit of p in the cart, merging with an existing line that has
// the same identifier.
func (s *Store) Add(ctx context.Context, p product.Product) {
	if p.ID.IsZero() {
		logger.Error(ctx).Err(ErrInvalidProduct).Str("name", p.Name).Msg("Ignoring add to cart")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quantity := 1
	if i := s.indexOf(p.ID); i >= 0 {
		s.items[i].Quantity++
		quantity = s.items[i].Quantity
	} else {
		s.items = append(s.items, CartItem{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			Discount:      p.Discount,
			Image:         p.Image,
			Quantity:      1,
		})
	}
	s.save(ctx)

	s.publish(ctx, EventItemAdded, ItemAddedToCart{
		CartID:    s.id,
		ProductID: p.ID.String(),
		Quantity:  quantity,
		Price:     p.Price,
		AddedAt:   time.Now(),
	})
}

// Remove drops every line with the given identifier
func (s *Store) Remove(ctx context.Context, id product.ID) {
	if id.IsZero() {
		logger.Error(ctx).Err(ErrInvalidProduct).Msg("Ignoring remove from cart")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(ctx, id)
}

func (s *Store) removeLocked(ctx context.Context, id product.ID) {
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID.String() != id.String() {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.save(ctx)

	s.publish(ctx, EventItemRemoved, ItemRemovedFromCart{
		CartID:    s.id,
		ProductID: id.String(),
		RemovedAt: time.Now(),
	})
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, id product.ID, quantity int) {
	if id.IsZero() {
		logger.Error(ctx).Err(ErrInvalidProduct).Msg("Ignoring cart quantity update")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(ctx, id)
		return
	}

	quantity = max(quantity, 1)
	for i := range s.items {
		if s.items[i].ID.String() == id.String() {
			s.items[i].Quantity = quantity
		}
	}
	s.save(ctx)

	s.publish(ctx, EventQuantityUpdated, CartItemQuantityUpdated{
		CartID:    s.id,
		ProductID: id.String(),
		Quantity:  quantity,
		UpdatedAt: time.Now(),
	})
}

// Clear empties the cart
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []CartItem{}
	s.save(ctx)

	s.publish(ctx, EventCartCleared, CartCleared{
		CartID:    s.id,
		ClearedAt: time.Now(),
	})
}

// Items returns a copy of the cart lines in insertion order
func (s *Store) Items() []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// ItemCount is the total number of units across all lines
func (s *Store) ItemCount() int {
	return itemCount(s.Items())
}

// Subtotal is the sum of price x quantity, before shipping and tax
func (s *Store) Subtotal() decimal.Decimal {
	return subtotal(s.Items())
}

// Total is subtotal + shipping + tax
func (s *Store) Total() decimal.Decimal {
	return s.Summary().Total
}

// Summary holds the cart lines with every derived amount computed from the
// same snapshot.
type Summary struct {
	Items     []CartItem              `json:"items"`
	ItemCount int                     `json:"item_count"`
	Subtotal  decimal.Decimal         `json:"subtotal"`
	Shipping  decimal.Decimal         `json:"shipping"`
	Tax       decimal.Decimal         `json:"tax"`
	Total     decimal.Decimal         `json:"total"`
	Discount  pricing.DiscountSummary `json:"discount"`
	NextTier  *pricing.NextTier       `json:"next_tier,omitempty"`
}

func (s *Store) Summary() Summary {
	return Summarize(s.Items())
}

// Summarize computes the totals of a set of cart lines
func Summarize(items []CartItem) Summary {
	sub := subtotal(items)
	shipping := ShippingFor(sub)
	tax := TaxFor(sub)

	lines := make([]pricing.LineQuantity, len(items))
	for i, item := range items {
		lines[i] = pricing.LineQuantity{Quantity: item.Quantity, Price: item.Price}
	}
	count := itemCount(items)

	return Summary{
		Items:     items,
		ItemCount: count,
		Subtotal:  sub,
		Shipping:  shipping,
		Tax:       tax,
		Total:     sub.Add(shipping).Add(tax),
		Discount:  pricing.CalculateDiscountedSubtotal(lines),
		NextTier:  pricing.NextTierMessage(count),
	}
}

// ShippingFor is free above FreeShippingMinimum, flat otherwise
func ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingMinimum) {
		return decimal.Zero
	}
	return FlatShipping
}

// TaxFor applies TaxRate to subtotal
func TaxFor(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate)
}

func itemCount(items []CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func subtotal(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}
