package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/licorice-storefront/internal/domain/product"
	"github.com/example/licorice-storefront/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSession = "session-abc"

var fixedTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestFavoritesStore(t *testing.T) (*Store, *mocks.MockStorage, *mocks.MockPublisher) {
	t.Helper()
	storage := mocks.NewMockStorage()
	publisher := mocks.NewMockPublisher()
	s := Open(context.Background(), testSession, storage,
		WithPublisher(publisher),
		WithClock(func() time.Time { return fixedTime }),
	)
	return s, storage, publisher
}

func testProduct(id, name string) product.Product {
	return product.Product{
		ID:    product.ID(id),
		Name:  name,
		Price: decimal.RequireFromString("6.00"),
	}
}

// ============================================
// Favorites Tests
// ============================================

func TestStore_Add(t *testing.T) {
	s, storage, publisher := newTestFavoritesStore(t)

	s.Add(context.Background(), testProduct("1", "Red Twists"))

	assert.True(t, s.IsFavorite("1"))
	require.Len(t, s.List(), 1)

	raw, ok := storage.Value(FavoritesKey(testSession))
	require.True(t, ok)
	var persisted []FavoriteProduct
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Len(t, persisted, 1)

	notifications := s.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, NotificationFavorite, notifications[0].Type)
	assert.Equal(t, "Red Twists was added to your favorites", notifications[0].Message)
	assert.False(t, notifications[0].Read)
	assert.Equal(t, []string{EventFavoriteAdded}, publisher.EventTypes())
}

func TestStore_Add_Twice(t *testing.T) {
	s, _, publisher := newTestFavoritesStore(t)
	ctx := context.Background()

	s.Add(ctx, testProduct("1", "Red Twists"))
	s.Add(ctx, testProduct("1", "Red Twists"))

	assert.Len(t, s.List(), 1)
	assert.Len(t, s.Notifications(), 1)
	assert.Len(t, publisher.Events, 1)
}

func TestStore_Add_EmptyID(t *testing.T) {
	s, storage, _ := newTestFavoritesStore(t)

	s.Add(context.Background(), testProduct("", "Mystery"))

	assert.Empty(t, s.List())
	assert.Empty(t, s.Notifications())
	assert.Empty(t, storage.SetCalls)
}

func TestStore_Remove(t *testing.T) {
	s, _, publisher := newTestFavoritesStore(t)
	ctx := context.Background()

	s.Add(ctx, testProduct("1", "Red Twists"))
	s.Add(ctx, testProduct("2", "Black Ropes"))
	s.Remove(ctx, "1")

	assert.False(t, s.IsFavorite("1"))
	assert.True(t, s.IsFavorite("2"))
	assert.Equal(t, EventFavoriteRemoved, publisher.EventTypes()[2])
}

func TestStore_Remove_EmptyID(t *testing.T) {
	s, storage, _ := newTestFavoritesStore(t)
	ctx := context.Background()

	s.Add(ctx, testProduct("1", "Red Twists"))
	writes := len(storage.SetCalls)

	s.Remove(ctx, "")

	assert.Len(t, s.List(), 1)
	assert.Len(t, storage.SetCalls, writes)
}

func TestStore_IsFavorite_NumericID(t *testing.T) {
	s, _, _ := newTestFavoritesStore(t)

	var raw product.Raw
	require.NoError(t, json.Unmarshal([]byte(`{"id": 15, "name": "Gummies"}`), &raw))
	s.Add(context.Background(), raw.Normalize())

	assert.True(t, s.IsFavorite("15"))
}

// ============================================
// Notification Tests
// ============================================

func TestStore_AddNotification_PrependsUnread(t *testing.T) {
	s, _, _ := newTestFavoritesStore(t)
	ctx := context.Background()

	first, err := s.AddNotification(ctx, NotificationRating, "Thanks for rating")
	require.NoError(t, err)
	second, err := s.AddNotification(ctx, NotificationFeedback, "Thanks for the feedback")
	require.NoError(t, err)

	notifications := s.Notifications()
	require.Len(t, notifications, 2)
	assert.Equal(t, second.ID, notifications[0].ID)
	assert.Equal(t, first.ID, notifications[1].ID)
	assert.NotEqual(t, first.ID, second.ID, "ids from the same tick must differ")
	assert.True(t, s.HasUnread())
}

func TestStore_AddNotification_InvalidType(t *testing.T) {
	s, _, _ := newTestFavoritesStore(t)

	_, err := s.AddNotification(context.Background(), "promo", "Sale!")

	assert.ErrorIs(t, err, ErrInvalidNotificationType)
	assert.Empty(t, s.Notifications())
}

func TestStore_AddNotification_TimestampID(t *testing.T) {
	s, _, _ := newTestFavoritesStore(t)

	n, err := s.AddNotification(context.Background(), NotificationRating, "Rated")

	require.NoError(t, err)
	assert.Equal(t, "1773489600000000000", n.ID)
	assert.Equal(t, fixedTime, n.CreatedAt)
}

func TestStore_MarkAsRead(t *testing.T) {
	s, storage, _ := newTestFavoritesStore(t)
	ctx := context.Background()

	s.Add(ctx, testProduct("1", "Red Twists"))
	n := s.Notifications()[0]

	assert.True(t, s.MarkAsRead(ctx, n.ID))
	assert.False(t, s.HasUnread())

	raw, _ := storage.Value(NotificationsKey(testSession))
	var persisted []Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.True(t, persisted[0].Read)
}

func TestStore_MarkAsRead_Unknown(t *testing.T) {
	s, _, _ := newTestFavoritesStore(t)

	assert.False(t, s.MarkAsRead(context.Background(), "nope"))
}

func TestStore_HasUnread(t *testing.T) {
	s, _, _ := newTestFavoritesStore(t)
	ctx := context.Background()

	assert.False(t, s.HasUnread())

	s.Add(ctx, testProduct("1", "A"))
	s.Add(ctx, testProduct("2", "B"))
	notifications := s.Notifications()
	s.MarkAsRead(ctx, notifications[0].ID)

	assert.True(t, s.HasUnread())

	s.MarkAsRead(ctx, notifications[1].ID)
	assert.False(t, s.HasUnread())
}

func TestStore_ClearNotifications(t *testing.T) {
	s, storage, _ := newTestFavoritesStore(t)
	ctx := context.Background()

	s.Add(ctx, testProduct("1", "A"))
	s.ClearNotifications(ctx)

	assert.Empty(t, s.Notifications())
	assert.False(t, s.HasUnread())
	assert.Len(t, s.List(), 1, "clearing notifications keeps favorites")

	raw, _ := storage.Value(NotificationsKey(testSession))
	assert.Equal(t, "[]", raw)
}

// ============================================
// Persistence Tests
// ============================================

func TestOpen_LoadsBothLists(t *testing.T) {
	storage := mocks.NewMockStorage()
	storage.Seed(FavoritesKey(testSession), `[{"id":"1","name":"A","price":"6"},{"id":2,"name":"B","price":"6"}]`)
	storage.Seed(NotificationsKey(testSession), `[{"id":"10","type":"favorite","message":"A was added","read":true}]`)

	s := Open(context.Background(), testSession, storage)

	assert.Len(t, s.List(), 2)
	assert.True(t, s.IsFavorite("2"))
	require.Len(t, s.Notifications(), 1)
	assert.False(t, s.HasUnread())
	assert.Empty(t, storage.SetCalls)
}

func TestOpen_DeduplicatesPersistedFavorites(t *testing.T) {
	storage := mocks.NewMockStorage()
	storage.Seed(FavoritesKey(testSession), `[{"id":"1","name":"A"},{"id":1,"name":"A again"},{"id":"","name":"blank"}]`)

	s := Open(context.Background(), testSession, storage)

	favorites := s.List()
	require.Len(t, favorites, 1)
	assert.Equal(t, "A", favorites[0].Name)
}

func TestOpen_MalformedState(t *testing.T) {
	storage := mocks.NewMockStorage()
	storage.Seed(FavoritesKey(testSession), `not json`)
	storage.Seed(NotificationsKey(testSession), `{"id":"1"}`)

	s := Open(context.Background(), testSession, storage)

	assert.Empty(t, s.List())
	assert.Empty(t, s.Notifications())
}

func TestOpen_NullState(t *testing.T) {
	storage := mocks.NewMockStorage()
	storage.Seed(FavoritesKey(testSession), `null`)

	s := Open(context.Background(), testSession, storage)

	assert.NotNil(t, s.List())
	assert.Empty(t, s.List())
}

func TestOpen_StorageError(t *testing.T) {
	storage := mocks.NewMockStorage()
	storage.GetErr = errors.New("timeout")

	s := Open(context.Background(), testSession, storage)

	assert.Empty(t, s.List())
	assert.Empty(t, s.Notifications())
}
