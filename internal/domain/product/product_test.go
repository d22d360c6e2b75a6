package product

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"string id", `"licorice-red"`, "licorice-red", false},
		{"numeric id", `42`, "42", false},
		{"numeric and string compare equal", `"42"`, "42", false},
		{"null id", `null`, "", false},
		{"padded string", `"  7 "`, "7", false},
		{"boolean is rejected", `true`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestID_IsZero(t *testing.T) {
	assert.True(t, ID("").IsZero())
	assert.True(t, ID("   ").IsZero())
	assert.False(t, ID("0").IsZero())
}

func TestRaw_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Product
	}{
		{
			name:  "price wins over currentPrice",
			input: `{"id": 1, "name": "Red Twists", "price": 6.5, "currentPrice": 5, "image": "red.png"}`,
			want:  Product{ID: "1", Name: "Red Twists", Price: decimal.RequireFromString("6.5"), Image: "red.png"},
		},
		{
			name:  "currentPrice used when price missing",
			input: `{"_id": "abc", "title": "Black Ropes", "currentPrice": "5.25", "imageUrl": "black.png"}`,
			want:  Product{ID: "abc", Name: "Black Ropes", Price: decimal.RequireFromString("5.25"), Image: "black.png"},
		},
		{
			name:  "zero price falls through to currentPrice",
			input: `{"id": "x", "name": "Bites", "price": 0, "currentPrice": 4}`,
			want:  Product{ID: "x", Name: "Bites", Price: decimal.RequireFromString("4")},
		},
		{
			name:  "no price at all",
			input: `{"id": "y", "name": "Sample"}`,
			want:  Product{ID: "y", Name: "Sample", Price: decimal.Zero},
		},
	}

	decimalComparer := cmp.Comparer(func(x, y decimal.Decimal) bool {
		return x.Equal(y)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw Raw
			require.NoError(t, json.Unmarshal([]byte(tt.input), &raw))

			got := raw.Normalize()

			assert.Empty(t, cmp.Diff(tt.want, got, decimalComparer))
		})
	}
}

func TestRaw_Normalize_KeepsOptionalPrices(t *testing.T) {
	var raw Raw
	require.NoError(t, json.Unmarshal([]byte(`{"id": 3, "name": "Gift Box", "price": 20, "originalPrice": 25, "discount": 20}`), &raw))

	got := raw.Normalize()

	require.NotNil(t, got.OriginalPrice)
	require.NotNil(t, got.Discount)
	assert.True(t, decimal.NewFromInt(25).Equal(*got.OriginalPrice))
	assert.True(t, decimal.NewFromInt(20).Equal(*got.Discount))
}
