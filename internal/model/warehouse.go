package model

import "time"

// Warehouse is a location that holds inventory and equipment.
type Warehouse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	Address   string     `json:"address,omitempty"`
	Capacity  int        `json:"capacity"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Warehouse types.
const (
	WarehouseTypeMain     = "MAIN"
	WarehouseTypeRegional = "REGIONAL"
	WarehouseTypeField    = "FIELD"
)

// Warehouse statuses.
const (
	WarehouseStatusActive      = "ACTIVE"
	WarehouseStatusInactive    = "INACTIVE"
	WarehouseStatusMaintenance = "MAINTENANCE"
)

// WarehouseStatuses lists every warehouse status.
var WarehouseStatuses = []string{WarehouseStatusActive, WarehouseStatusInactive, WarehouseStatusMaintenance}
