package favorites

import "time"

const (
	EventFavoriteAdded   = "FavoriteAdded"
	EventFavoriteRemoved = "FavoriteRemoved"
)

type FavoriteAdded struct {
	SessionID string    `json:"session_id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	AddedAt   time.Time `json:"added_at"`
}

type FavoriteRemoved struct {
	SessionID string    `json:"session_id"`
	ProductID string    `json:"product_id"`
	RemovedAt time.Time `json:"removed_at"`
}
