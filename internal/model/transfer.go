package model

import (
	"slices"
	"time"
)

// Transfer represents a movement of inventory and equipment into, out of,
// or between warehouses.
type Transfer struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	SourceID    *string   `json:"sourceId,omitempty"`
	TargetID    string    `json:"targetId"`
	RequesterID *string   `json:"requesterId,omitempty"`
	ReceiverID  *string   `json:"receiverId,omitempty"`
	Date        time.Time `json:"date"`
	Notes       string    `json:"notes,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Relations (populated by GetTransfer).
	Inventory []TransferInventoryItem `json:"inventory,omitempty"`
	Equipment []TransferEquipmentItem `json:"equipment,omitempty"`
	Source    *Warehouse              `json:"source,omitempty"`
	Target    *Warehouse              `json:"target,omitempty"`
	Requester *User                   `json:"requester,omitempty"`
	Receiver  *User                   `json:"receiver,omitempty"`
}

// TransferInventoryItem links a transfer to an inventory item with a
// requested quantity.
type TransferInventoryItem struct {
	ID          string    `json:"id"`
	TransferID  string    `json:"transferId"`
	InventoryID string    `json:"inventoryId"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"createdAt"`

	// Joined fields (not always populated).
	ItemName string `json:"itemName,omitempty"`
	ItemSKU  string `json:"itemSku,omitempty"`
}

// TransferEquipmentItem links a transfer to one equipment unit.
type TransferEquipmentItem struct {
	ID          string    `json:"id"`
	TransferID  string    `json:"transferId"`
	EquipmentID string    `json:"equipmentId"`
	CreatedAt   time.Time `json:"createdAt"`

	// Joined fields (not always populated).
	EquipmentName string `json:"equipmentName,omitempty"`
	SerialNumber  string `json:"serialNumber,omitempty"`
}

// Transfer types.
const (
	TransferTypeIn       = "IN"
	TransferTypeOut      = "OUT"
	TransferTypeTransfer = "TRANSFER"
)

// Transfer statuses.
const (
	TransferStatusPending   = "PENDING"
	TransferStatusApproved  = "APPROVED"
	TransferStatusRejected  = "REJECTED"
	TransferStatusCompleted = "COMPLETED"
	TransferStatusCancelled = "CANCELLED"
)

// TransferStatuses lists every transfer status in workflow order.
var TransferStatuses = []string{
	TransferStatusPending,
	TransferStatusApproved,
	TransferStatusRejected,
	TransferStatusCompleted,
	TransferStatusCancelled,
}

// transferTransitions is the transfer state machine. Statuses without an
// entry are terminal.
var transferTransitions = map[string][]string{
	TransferStatusPending:  {TransferStatusApproved, TransferStatusRejected, TransferStatusCancelled},
	TransferStatusApproved: {TransferStatusCompleted, TransferStatusCancelled},
}

// ValidTransferType reports whether t is a known transfer type.
func ValidTransferType(t string) bool {
	return t == TransferTypeIn || t == TransferTypeOut || t == TransferTypeTransfer
}

// ValidTransferStatus reports whether s is a known transfer status.
func ValidTransferStatus(s string) bool {
	return slices.Contains(TransferStatuses, s)
}

// CanTransition reports whether a transfer may move from one status to another.
func CanTransition(from, to string) bool {
	return slices.Contains(transferTransitions[from], to)
}

// NextStatuses returns the statuses reachable from the given one.
func NextStatuses(from string) []string {
	return slices.Clone(transferTransitions[from])
}

// IsTerminal reports whether no further transitions are allowed from s.
func IsTerminal(s string) bool {
	return len(transferTransitions[s]) == 0
}

// OriginWarehouseID returns the warehouse stock is drawn from, or nil for
// inbound shipments from outside.
func (t *Transfer) OriginWarehouseID() *string {
	switch t.Type {
	case TransferTypeTransfer:
		return t.SourceID
	case TransferTypeOut:
		if t.SourceID != nil {
			return t.SourceID
		}
		target := t.TargetID
		return &target
	default:
		return nil
	}
}

// HoldingWarehouseID returns the warehouse that line items must belong to
// while the transfer is open.
func (t *Transfer) HoldingWarehouseID() string {
	if origin := t.OriginWarehouseID(); origin != nil {
		return *origin
	}
	return t.TargetID
}
