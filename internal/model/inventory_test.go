package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveInventoryStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		qty      int
		min      int
		expiry   *time.Time
		current  string
		expected string
	}{
		{"plenty", 50, 10, nil, "", InventoryStatusAvailable},
		{"at threshold", 10, 10, nil, InventoryStatusAvailable, InventoryStatusLowStock},
		{"empty", 0, 10, nil, InventoryStatusLowStock, InventoryStatusOutOfStock},
		{"expired wins", 50, 10, &past, InventoryStatusAvailable, InventoryStatusExpired},
		{"not yet expired", 50, 10, &future, "", InventoryStatusAvailable},
		{"reserved kept", 5, 10, nil, InventoryStatusReserved, InventoryStatusReserved},
		{"reserved emptied", 0, 10, nil, InventoryStatusReserved, InventoryStatusOutOfStock},
		{"expired reserved", 5, 0, &past, InventoryStatusReserved, InventoryStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveInventoryStatus(tt.qty, tt.min, tt.expiry, tt.current, now)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestInventoryItemValue(t *testing.T) {
	item := InventoryItem{Quantity: 3, UnitPrice: decimal.RequireFromString("12.50")}
	assert.True(t, item.Value().Equal(decimal.RequireFromString("37.5")))
}
