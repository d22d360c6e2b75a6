// Package pricing implements the quantity-tiered unit pricing used across the
// storefront. Every item in a cart shares one unit price derived from the
// combined quantity of the cart.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BasePrice is the undiscounted price of a single bag.
var BasePrice = decimal.RequireFromString("6.00")

const freeShippingThreshold = 10

// DiscountTier maps an inclusive quantity range to a unit price.
// Max == 0 means the tier has no upper bound.
type DiscountTier struct {
	Min       int             `json:"min"`
	Max       int             `json:"max"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Label     string          `json:"label"`
}

// Contains reports whether quantity falls within the tier
func (t DiscountTier) Contains(quantity int) bool {
	return quantity >= t.Min && (t.Max == 0 || quantity <= t.Max)
}

// ShippingTier is a shipping rate applied up to MaxQuantity units
// (0 means any quantity above the previous tier).
type ShippingTier struct {
	MaxQuantity int             `json:"max_quantity"`
	Price       decimal.Decimal `json:"price"`
	Label       string          `json:"label"`
}

// DiscountTiers is ordered and non-overlapping; it covers [1, ∞).
var DiscountTiers = []DiscountTier{
	{Min: 1, Max: 5, UnitPrice: decimal.RequireFromString("6.00"), Label: "Regular Price"},
	{Min: 6, Max: 11, UnitPrice: decimal.RequireFromString("5.50"), Label: "Sweet Deal"},
	{Min: 12, Max: 23, UnitPrice: decimal.RequireFromString("5.00"), Label: "Bulk Saver"},
	{Min: 24, Max: 47, UnitPrice: decimal.RequireFromString("4.50"), Label: "Candy Lover"},
	{Min: 48, Max: 0, UnitPrice: decimal.RequireFromString("4.00"), Label: "Wholesale Pricing"},
}

var (
	StandardShipping = []ShippingTier{
		{MaxQuantity: freeShippingThreshold, Price: decimal.RequireFromString("5.99"), Label: "Standard Shipping"},
		{MaxQuantity: 0, Price: decimal.Zero, Label: "Free Shipping"},
	}
	PremiumShipping = []ShippingTier{
		{MaxQuantity: freeShippingThreshold, Price: decimal.RequireFromString("12.99"), Label: "Express Shipping"},
		{MaxQuantity: 0, Price: decimal.RequireFromString("7.99"), Label: "Express Shipping (Bulk Rate)"},
	}
)

var fallbackTier = DiscountTier{Min: 0, Max: 0, UnitPrice: BasePrice, Label: "Regular Price"}

// tierIndex returns the index of the first tier containing quantity, or -1.
func tierIndex(quantity int) int {
	for i, tier := range DiscountTiers {
		if tier.Contains(quantity) {
			return i
		}
	}
	return -1
}

// TierFor returns the tier for quantity, falling back to the base price.
func TierFor(quantity int) DiscountTier {
	if i := tierIndex(quantity); i >= 0 {
		return DiscountTiers[i]
	}
	return fallbackTier
}

// PricePerUnit returns the unit price for quantity
func PricePerUnit(quantity int) decimal.Decimal {
	return TierFor(quantity).UnitPrice
}

// TierLabel returns the human readable tier name for quantity
func TierLabel(quantity int) string {
	return TierFor(quantity).Label
}

// LineQuantity is the minimal view of a cart line the calculator needs.
type LineQuantity struct {
	Quantity int
	Price    decimal.Decimal
}

// DiscountSummary is the result of pricing a whole cart against the tier table.
type DiscountSummary struct {
	TotalQuantity      int             `json:"total_quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TierLabel          string          `json:"tier_label"`
	OriginalSubtotal   decimal.Decimal `json:"original_subtotal"`
	DiscountedSubtotal decimal.Decimal `json:"discounted_subtotal"`
	Savings            decimal.Decimal `json:"savings"`
}

// CalculateDiscountedSubtotal prices every line at the unit price of the
// cart's combined quantity.
func CalculateDiscountedSubtotal(lines []LineQuantity) DiscountSummary {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}

	tier := TierFor(total)
	original := decimal.Zero
	discounted := decimal.Zero
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		original = original.Add(BasePrice.Mul(qty))
		discounted = discounted.Add(tier.UnitPrice.Mul(qty))
	}

	return DiscountSummary{
		TotalQuantity:      total,
		UnitPrice:          tier.UnitPrice,
		TierLabel:          tier.Label,
		OriginalSubtotal:   original,
		DiscountedSubtotal: discounted,
		Savings:            original.Sub(discounted),
	}
}

// ShippingFor selects the shipping rate for quantity from the standard or
// premium table.
func ShippingFor(quantity int, premium bool) ShippingTier {
	table := StandardShipping
	if premium {
		table = PremiumShipping
	}
	if quantity <= freeShippingThreshold {
		return table[0]
	}
	return table[1]
}

// ShippingCost is a shortcut for ShippingFor(quantity, premium).Price
func ShippingCost(quantity int, premium bool) decimal.Decimal {
	return ShippingFor(quantity, premium).Price
}

// NextTier describes what it takes to reach the next discount tier.
type NextTier struct {
	ItemsNeeded    int             `json:"items_needed"`
	SavingsPerUnit decimal.Decimal `json:"savings_per_unit"`
	Label          string          `json:"label"`
	Message        string          `json:"message"`
}

// NextTierMessage returns the upsell for quantity, or nil when quantity is
// already at the top tier.
func NextTierMessage(quantity int) *NextTier {
	i := tierIndex(quantity)
	if i < 0 || i+1 >= len(DiscountTiers) {
		return nil
	}

	current := DiscountTiers[i]
	next := DiscountTiers[i+1]
	needed := next.Min - quantity
	savings := current.UnitPrice.Sub(next.UnitPrice)

	noun := "bags"
	if needed == 1 {
		noun = "bag"
	}

	return &NextTier{
		ItemsNeeded:    needed,
		SavingsPerUnit: savings,
		Label:          next.Label,
		Message: fmt.Sprintf("Add %d more %s to unlock %s and save $%s per bag!",
			needed, noun, next.Label, savings.StringFixed(2)),
	}
}
