package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is a stock-keeping unit held at a warehouse.
type InventoryItem struct {
	ID          string          `json:"id"`
	WarehouseID string          `json:"warehouseId"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Category    string          `json:"category,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Quantity    int             `json:"quantity"`
	MinQuantity int             `json:"minQuantity"`
	MaxQuantity int             `json:"maxQuantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ExpiryDate  *time.Time      `json:"expiryDate,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	// Joined fields (not always populated).
	WarehouseName string `json:"warehouseName,omitempty"`
}

// Inventory statuses.
const (
	InventoryStatusAvailable  = "AVAILABLE"
	InventoryStatusLowStock   = "LOW_STOCK"
	InventoryStatusOutOfStock = "OUT_OF_STOCK"
	InventoryStatusExpired    = "EXPIRED"
	InventoryStatusReserved   = "RESERVED"
)

// InventoryStatuses lists every inventory status.
var InventoryStatuses = []string{
	InventoryStatusAvailable,
	InventoryStatusLowStock,
	InventoryStatusOutOfStock,
	InventoryStatusExpired,
	InventoryStatusReserved,
}

// Value returns the stock value of the item (quantity * unit price).
func (i *InventoryItem) Value() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// DeriveInventoryStatus computes the status of an item from its quantity,
// threshold and expiry. RESERVED is sticky while stock remains.
func DeriveInventoryStatus(quantity, minQuantity int, expiry *time.Time, current string, now time.Time) string {
	switch {
	case expiry != nil && expiry.Before(now):
		return InventoryStatusExpired
	case current == InventoryStatusReserved && quantity > 0:
		return InventoryStatusReserved
	case quantity <= 0:
		return InventoryStatusOutOfStock
	case quantity <= minQuantity:
		return InventoryStatusLowStock
	default:
		return InventoryStatusAvailable
	}
}
