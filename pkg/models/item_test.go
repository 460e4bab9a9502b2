package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemStockPredicates(t *testing.T) {
	tests := []struct {
		name       string
		quantity   int
		minStock   int
		wantLow    bool
		wantOutOfS bool
	}{
		{"healthy", 20, 5, false, false},
		{"at reorder point", 5, 5, true, false},
		{"below reorder point", 2, 5, true, false},
		{"empty", 0, 5, true, true},
		{"empty with zero min", 0, 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Item{Quantity: tt.quantity, MinStockLevel: tt.minStock}
			assert.Equal(t, tt.wantLow, item.IsLowStock())
			assert.Equal(t, tt.wantOutOfS, item.IsOutOfStock())
		})
	}
}

func TestCreateItemRequestToItem(t *testing.T) {
	req := CreateItemRequest{Name: "Widget", Quantity: 4, Price: 2.5, MinStockLevel: 3}

	item := req.ToItem()

	assert.False(t, item.ID.IsZero())
	assert.True(t, strings.HasPrefix(item.SKU, "WID-GEN-"))
	assert.Equal(t, 10.0, item.StockValue())
	assert.False(t, item.CreatedAt.IsZero())
}

func TestValidate(t *testing.T) {
	errs := Validate(&CreateItemRequest{Quantity: -1})
	require.Len(t, errs, 2)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "required", errs[0].Rule)
	assert.Equal(t, "quantity", errs[1].Field)

	assert.Empty(t, Validate(&CreateItemRequest{Name: "ok"}))
}

func TestStockMovementClassification(t *testing.T) {
	item := &Item{SKU: "ABC-1", Quantity: 6}

	m := NewStockMovement(item, 10, "")

	assert.Equal(t, "sale", m.ChangeType)
	assert.Equal(t, -4, m.QuantityChanged)
	assert.Equal(t, "system", m.PerformedBy)
	assert.Equal(t, "decreased by 4 units", m.Description())
}

func TestGenerateSKU(t *testing.T) {
	req := CreateItemRequest{Name: "Hex Bolt", CategoryID: "fasteners"}

	seen := make(map[string]bool)
	for range 5 {
		sku := req.GenerateSKU()
		assert.True(t, strings.HasPrefix(sku, "HEX-ERS-"), sku)
		assert.False(t, seen[sku], "duplicate sku %s", sku)
		seen[sku] = true
		time.Sleep(time.Microsecond)
	}

	short := CreateItemRequest{Name: "AB", CategoryID: "x"}
	assert.True(t, strings.HasPrefix(short.GenerateSKU(), "AB-X-"))
}
