package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============================================
// Tier Lookup Tests
// ============================================

func TestPricePerUnit(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		want     string
		label    string
	}{
		{"single bag", 1, "6.00", "Regular Price"},
		{"top of first tier", 5, "6.00", "Regular Price"},
		{"bottom of second tier", 6, "5.50", "Sweet Deal"},
		{"top of second tier", 11, "5.50", "Sweet Deal"},
		{"a dozen", 12, "5.00", "Bulk Saver"},
		{"two dozen", 24, "4.50", "Candy Lover"},
		{"top of fourth tier", 47, "4.50", "Candy Lover"},
		{"wholesale", 48, "4.00", "Wholesale Pricing"},
		{"very large order", 100000, "4.00", "Wholesale Pricing"},
		{"zero falls back to base price", 0, "6.00", "Regular Price"},
		{"negative falls back to base price", -3, "6.00", "Regular Price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, dec(tt.want).Equal(PricePerUnit(tt.quantity)), "got %s", PricePerUnit(tt.quantity))
			assert.Equal(t, tt.label, TierLabel(tt.quantity))
		})
	}
}

func TestDiscountTiers_ExhaustiveAndNonOverlapping(t *testing.T) {
	for q := 1; q <= 500; q++ {
		matches := 0
		for _, tier := range DiscountTiers {
			if tier.Contains(q) {
				matches++
			}
		}
		require.Equal(t, 1, matches, "quantity %d matched %d tiers", q, matches)
	}

	last := DiscountTiers[len(DiscountTiers)-1]
	assert.Zero(t, last.Max, "last tier must be unbounded")
}

func TestDiscountTiers_PricesNeverIncrease(t *testing.T) {
	for i := 1; i < len(DiscountTiers); i++ {
		assert.True(t, DiscountTiers[i].UnitPrice.LessThan(DiscountTiers[i-1].UnitPrice))
		assert.Equal(t, DiscountTiers[i-1].Max+1, DiscountTiers[i].Min)
	}
}

// ============================================
// Cart Discount Tests
// ============================================

func TestCalculateDiscountedSubtotal_SingleLine(t *testing.T) {
	summary := CalculateDiscountedSubtotal([]LineQuantity{{Quantity: 12, Price: dec("6.00")}})

	assert.Equal(t, 12, summary.TotalQuantity)
	assert.True(t, dec("5.00").Equal(summary.UnitPrice))
	assert.Equal(t, "Bulk Saver", summary.TierLabel)
	assert.True(t, dec("72.00").Equal(summary.OriginalSubtotal))
	assert.True(t, dec("60.00").Equal(summary.DiscountedSubtotal))
	assert.True(t, dec("12.00").Equal(summary.Savings))
}

func TestCalculateDiscountedSubtotal_CombinedQuantityDrivesTier(t *testing.T) {
	// 4 + 3 = 7 bags puts both lines in the second tier even though neither
	// line alone would qualify.
	summary := CalculateDiscountedSubtotal([]LineQuantity{
		{Quantity: 4, Price: dec("6.00")},
		{Quantity: 3, Price: dec("6.00")},
	})

	assert.Equal(t, 7, summary.TotalQuantity)
	assert.True(t, dec("5.50").Equal(summary.UnitPrice))
	assert.True(t, dec("38.50").Equal(summary.DiscountedSubtotal))
	assert.True(t, dec("3.50").Equal(summary.Savings))
}

func TestCalculateDiscountedSubtotal_SavingsFormula(t *testing.T) {
	carts := [][]LineQuantity{
		{{Quantity: 1}},
		{{Quantity: 2}, {Quantity: 3}},
		{{Quantity: 10}, {Quantity: 1}, {Quantity: 1}},
		{{Quantity: 30}, {Quantity: 17}},
		{{Quantity: 48}},
		{{Quantity: 250}, {Quantity: 3}},
	}

	for _, lines := range carts {
		summary := CalculateDiscountedSubtotal(lines)
		q := decimal.NewFromInt(int64(summary.TotalQuantity))
		want := BasePrice.Sub(PricePerUnit(summary.TotalQuantity)).Mul(q)

		assert.True(t, want.Equal(summary.Savings), "Q=%d want %s got %s", summary.TotalQuantity, want, summary.Savings)
		assert.False(t, summary.Savings.IsNegative())
	}
}

func TestCalculateDiscountedSubtotal_Empty(t *testing.T) {
	summary := CalculateDiscountedSubtotal(nil)

	assert.Zero(t, summary.TotalQuantity)
	assert.True(t, summary.Savings.IsZero())
	assert.True(t, summary.DiscountedSubtotal.IsZero())
}

// ============================================
// Shipping Tests
// ============================================

func TestShippingFor(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		premium  bool
		price    string
		label    string
	}{
		{"standard small order", 1, false, "5.99", "Standard Shipping"},
		{"standard at threshold", 10, false, "5.99", "Standard Shipping"},
		{"standard above threshold", 11, false, "0", "Free Shipping"},
		{"premium small order", 3, true, "12.99", "Express Shipping"},
		{"premium at threshold", 10, true, "12.99", "Express Shipping"},
		{"premium above threshold", 11, true, "7.99", "Express Shipping (Bulk Rate)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier := ShippingFor(tt.quantity, tt.premium)
			assert.True(t, dec(tt.price).Equal(tier.Price))
			assert.Equal(t, tt.label, tier.Label)
			assert.True(t, tier.Price.Equal(ShippingCost(tt.quantity, tt.premium)))
		})
	}
}

// ============================================
// Next Tier Tests
// ============================================

func TestNextTierMessage(t *testing.T) {
	next := NextTierMessage(4)

	require.NotNil(t, next)
	assert.Equal(t, 2, next.ItemsNeeded)
	assert.True(t, dec("0.50").Equal(next.SavingsPerUnit))
	assert.Equal(t, "Sweet Deal", next.Label)
	assert.Equal(t, "Add 2 more bags to unlock Sweet Deal and save $0.50 per bag!", next.Message)
}

func TestNextTierMessage_OneAway(t *testing.T) {
	next := NextTierMessage(47)

	require.NotNil(t, next)
	assert.Equal(t, 1, next.ItemsNeeded)
	assert.Contains(t, next.Message, "Add 1 more bag to unlock Wholesale Pricing")
}

func TestNextTierMessage_TopTier(t *testing.T) {
	assert.Nil(t, NextTierMessage(48))
	assert.Nil(t, NextTierMessage(1000))
}

func TestNextTierMessage_NoTier(t *testing.T) {
	assert.Nil(t, NextTierMessage(0))
}
