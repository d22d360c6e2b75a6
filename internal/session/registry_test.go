package session

import (
	"context"
	"testing"
	"time"

	"github.com/example/licorice-storefront/internal/domain/cart"
	"github.com/example/licorice-storefront/internal/domain/product"
	"github.com/example/licorice-storefront/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func licorice(id string) product.Product {
	return product.Product{ID: product.ID(id), Name: "Licorice " + id, Price: decimal.NewFromInt(6)}
}

func TestRegistry_Cart_OpensOnce(t *testing.T) {
	storage := mocks.NewMockStorage()
	r := NewRegistry(storage, nil)
	ctx := context.Background()

	first := r.Cart(ctx, "s1")
	first.Add(ctx, licorice("1"))
	second := r.Cart(ctx, "s1")

	assert.Same(t, first, second)
	assert.Equal(t, 1, second.ItemCount())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_IsolatesSessions(t *testing.T) {
	r := NewRegistry(mocks.NewMockStorage(), nil)
	ctx := context.Background()

	r.Cart(ctx, "s1").Add(ctx, licorice("1"))
	r.Favorites(ctx, "s2").Add(ctx, licorice("2"))

	assert.Zero(t, r.Cart(ctx, "s2").ItemCount())
	assert.Empty(t, r.Favorites(ctx, "s1").List())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_PublishesThroughSharedPublisher(t *testing.T) {
	publisher := mocks.NewMockPublisher()
	r := NewRegistry(mocks.NewMockStorage(), publisher)
	ctx := context.Background()

	r.Cart(ctx, "s1").Add(ctx, licorice("1"))
	r.Favorites(ctx, "s1").Add(ctx, licorice("1"))

	assert.Len(t, publisher.Events, 2)
}

func TestRegistry_Evict_ReloadsFromStorage(t *testing.T) {
	storage := mocks.NewMockStorage()
	r := NewRegistry(storage, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	before := r.Cart(ctx, "s1")
	before.Add(ctx, licorice("1"))
	r.Cart(ctx, "s2")

	now = now.Add(2 * time.Hour)
	r.Cart(ctx, "s2")

	assert.Equal(t, 1, r.Evict(time.Hour))
	assert.Equal(t, 1, r.Len())

	after := r.Cart(ctx, "s1")
	assert.NotSame(t, before, after)
	require.Len(t, after.Items(), 1)
	assert.Equal(t, 1, after.Items()[0].Quantity)

	_, ok := storage.Value(cart.StorageKey("s1"))
	assert.True(t, ok)
}

func TestRegistry_RunEviction_StopsWithContext(t *testing.T) {
	r := NewRegistry(mocks.NewMockStorage(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.RunEviction(ctx, time.Millisecond, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunEviction did not stop")
	}
}
