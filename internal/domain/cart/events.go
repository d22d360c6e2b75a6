package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventItemAdded       = "ItemAddedToCart"
	EventItemRemoved     = "ItemRemovedFromCart"
	EventQuantityUpdated = "CartItemQuantityUpdated"
	EventCartCleared     = "CartCleared"
)

type ItemAddedToCart struct {
	CartID    string          `json:"cart_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	AddedAt   time.Time       `json:"added_at"`
}

type ItemRemovedFromCart struct {
	CartID    string    `json:"cart_id"`
	ProductID string    `json:"product_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartItemQuantityUpdated struct {
	CartID    string    `json:"cart_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CartCleared struct {
	CartID    string    `json:"cart_id"`
	ClearedAt time.Time `json:"cleared_at"`
}
