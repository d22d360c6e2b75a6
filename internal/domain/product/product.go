package product

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidID = errors.New("product id must be a string or a number")

// ID identifies a product. The backend sends numeric and string identifiers
// interchangeably; both decode to the same ID so that 42 and "42" compare equal.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return ErrInvalidID
		}
		*id = ID(n.String())
		return nil
	}
}

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is missing
func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Product is the normalized product shape used by the cart and favorites.
type Product struct {
	ID            ID               `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	Image         string           `json:"image"`
}

// Raw is the loosely shaped product the backend and the storefront clients
// send. Normalize turns it into a Product once, at the boundary.
type Raw struct {
	ID            ID               `json:"id"`
	LegacyID      ID               `json:"_id"`
	Name          string           `json:"name"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	CurrentPrice  *decimal.Decimal `json:"currentPrice"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Discount      *decimal.Decimal `json:"discount"`
	Image         string           `json:"image"`
	ImageURL      string           `json:"imageUrl"`
}

// Normalize resolves the fallback chains of the raw shape:
// id || _id, name || title, price || currentPrice || 0, image || imageUrl.
func (r Raw) Normalize() Product {
	p := Product{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Price:         firstNonZero(r.Price, r.CurrentPrice),
		OriginalPrice: r.OriginalPrice,
		Discount:      r.Discount,
		Image:         r.Image,
	}
	if p.ID.IsZero() {
		p.ID = r.LegacyID
	}
	if p.Name == "" {
		p.Name = r.Title
	}
	if p.Image == "" {
		p.Image = r.ImageURL
	}
	return p
}

func firstNonZero(values ...*decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if v != nil && !v.IsZero() {
			return *v
		}
	}
	return decimal.Zero
}
