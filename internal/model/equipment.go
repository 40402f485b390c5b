package model

import "time"

// Equipment is a uniquely serialized asset.
type Equipment struct {
	ID           string     `json:"id"`
	WarehouseID  *string    `json:"warehouseId,omitempty"`
	Name         string     `json:"name"`
	SerialNumber string     `json:"serialNumber"`
	Category     string     `json:"category,omitempty"`
	Status       string     `json:"status"`
	Condition    int        `json:"condition"`
	PhotoKey     string     `json:"-"`
	PhotoMIME    string     `json:"photoMime,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// Equipment statuses.
const (
	EquipmentStatusAvailable   = "AVAILABLE"
	EquipmentStatusInUse       = "IN_USE"
	EquipmentStatusMaintenance = "MAINTENANCE"
	EquipmentStatusRepair      = "REPAIR"
	EquipmentStatusReserved    = "RESERVED"
	EquipmentStatusRetired     = "RETIRED"
)

// EquipmentStatuses lists every equipment status.
var EquipmentStatuses = []string{
	EquipmentStatusAvailable,
	EquipmentStatusInUse,
	EquipmentStatusMaintenance,
	EquipmentStatusRepair,
	EquipmentStatusReserved,
	EquipmentStatusRetired,
}

// Condition ratings run from 1 (unusable) to 5 (new).
const (
	ConditionMin = 1
	ConditionMax = 5
)
