package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zascita/internal/model"
)

func TestCreateAndGetTransfer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	requester := seedUser(t, s, "req", model.RoleUser)
	seedWarehouse(t, s, "W1")
	seedWarehouse(t, s, "W2")
	seedItem(t, s, "I1", "W1", "SKU-1", 10)
	seedItem(t, s, "I2", "W1", "SKU-2", 10)
	seedEquipment(t, s, "E1", "W1", "SN-1")

	created, err := s.CreateTransfer(ctx, model.Transfer{
		Type:        model.TransferTypeTransfer,
		SourceID:    ptr("W1"),
		TargetID:    "W2",
		RequesterID: &requester.ID,
		Notes:       "flood relief",
		Inventory: []model.TransferInventoryItem{
			{InventoryID: "I1", Quantity: 3},
			{InventoryID: "I2", Quantity: 4},
		},
		Equipment: []model.TransferEquipmentItem{{EquipmentID: "E1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransferStatusPending, created.Status)
	assert.Equal(t, 1, created.Version)

	got, err := s.GetTransfer(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Inventory, 2)
	require.Len(t, got.Equipment, 1)
	for _, line := range got.Inventory {
		assert.Equal(t, created.ID, line.TransferID)
		assert.NotEmpty(t, line.ItemSKU)
	}
	assert.Equal(t, created.ID, got.Equipment[0].TransferID)
	assert.Equal(t, "SN-1", got.Equipment[0].SerialNumber)

	require.NotNil(t, got.Source)
	assert.Equal(t, "W1", got.Source.ID)
	require.NotNil(t, got.Target)
	assert.Equal(t, "W2", got.Target.ID)
	require.NotNil(t, got.Requester)
	assert.Equal(t, "req", got.Requester.Username)
	assert.Nil(t, got.Receiver)
}

func TestGetTransferNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTransfer(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTransferValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWarehouse(t, s, "W1")
	seedWarehouse(t, s, "W2")
	seedItem(t, s, "I1", "W1", "SKU-1", 10)
	seedItem(t, s, "I9", "W2", "SKU-9", 10)

	line := []model.TransferInventoryItem{{InventoryID: "I1", Quantity: 1}}

	tests := []struct {
		name string
		in   model.Transfer
	}{
		{"unknown type", model.Transfer{Type: "GIFT", TargetID: "W1", Inventory: line}},
		{"missing target", model.Transfer{Type: model.TransferTypeOut, Inventory: line}},
		{"transfer without source", model.Transfer{Type: model.TransferTypeTransfer, TargetID: "W2", Inventory: line}},
		{"same source and target", model.Transfer{Type: model.TransferTypeTransfer, SourceID: ptr("W1"), TargetID: "W1", Inventory: line}},
		{"no lines", model.Transfer{Type: model.TransferTypeOut, TargetID: "W1"}},
		{"zero quantity", model.Transfer{Type: model.TransferTypeOut, TargetID: "W1",
			Inventory: []model.TransferInventoryItem{{InventoryID: "I1", Quantity: 0}}}},
		{"duplicate line", model.Transfer{Type: model.TransferTypeOut, TargetID: "W1",
			Inventory: []model.TransferInventoryItem{{InventoryID: "I1", Quantity: 1}, {InventoryID: "I1", Quantity: 2}}}},
		{"unknown target", model.Transfer{Type: model.TransferTypeOut, TargetID: "W9", Inventory: line}},
		{"unknown source", model.Transfer{Type: model.TransferTypeTransfer, SourceID: ptr("W9"), TargetID: "W2", Inventory: line}},
		{"unknown receiver", model.Transfer{Type: model.TransferTypeOut, TargetID: "W1", ReceiverID: ptr("nobody"), Inventory: line}},
		{"unknown item", model.Transfer{Type: model.TransferTypeOut, TargetID: "W1",
			Inventory: []model.TransferInventoryItem{{InventoryID: "missing", Quantity: 1}}}},
		{"item at wrong warehouse", model.Transfer{Type: model.TransferTypeTransfer, SourceID: ptr("W1"), TargetID: "W2",
			Inventory: []model.TransferInventoryItem{{InventoryID: "I9", Quantity: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTransfer(ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	transfers, err := s.ListTransfers(ctx, TransferFilter{})
	require.NoError(t, err)
	assert.Empty(t, transfers, "failed creates must not leave rows behind")
}

func TestCreateTransferAllowsOverdraftUntilApproval(t *testing.T) {
	s := newTestStore(t)
	seedWarehouse(t, s, "W1")
	seedItem(t, s, "I1", "W1", "SKU-1", 2)

	_, err := s.CreateTransfer(context.Background(), model.Transfer{
		Type:      model.TransferTypeOut,
		TargetID:  "W1",
		Inventory: []model.TransferInventoryItem{{InventoryID: "I1", Quantity: 5}},
	})
	assert.NoError(t, err)
}

func TestCreateOutTransferWithSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWarehouse(t, s, "W1")
	seedWarehouse(t, s, "W2")
	seedItem(t, s, "I1", "W1", "SKU-1", 5)

	same := createTransfer(t, s, model.Transfer{Type: model.TransferTypeOut, SourceID: ptr("W1"), TargetID: "W1",
		Inventory: []model.TransferInventoryItem{{InventoryID: "I1", Quantity: 2}}})
	require.NotNil(t, same.SourceID)
	assert.Equal(t, "W1", *same.SourceID)

	elsewhere := createTransfer(t, s, model.Transfer{Type: model.TransferTypeOut, SourceID: ptr("W1"), TargetID: "W2",
		Inventory: []model.TransferInventoryItem{{InventoryID: "I1", Quantity: 3}}})

	advance(t, s, same.ID, model.TransferStatusApproved, model.TransferStatusCompleted)
	advance(t, s, elsewhere.ID, model.TransferStatusApproved, model.TransferStatusCompleted)

	item, err := s.GetInventoryItem(ctx, "I1")
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)
}

func TestListTransfersFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWarehouse(t, s, "W1")
	seedWarehouse(t, s, "W2")
	seedWarehouse(t, s, "W3")
	seedItem(t, s, "I1", "W1", "SKU-1", 10)
	seedItem(t, s, "I3", "W3", "SKU-3", 10)

	out := createTransfer(t, s, model.Transfer{Type: model.TransferTypeOut, TargetID: "W1",
		Inventory: []model.TransferInventoryItem{{InventoryID: "I1", Quantity: 1}}})
	move := createTransfer(t, s, model.Transfer{Type: model.TransferTypeTransfer, SourceID: ptr("W1"), TargetID: "W2",
		Inventory: []model.TransferInventoryItem{{InventoryID: "I1", Quantity: 1}}})
	createTransfer(t, s, model.Transfer{Type: model.TransferTypeIn, TargetID: "W3",
		Inventory: []model.TransferInventoryItem{{InventoryID: "I3", Quantity: 1}}})

	byType, err := s.ListTransfers(ctx, TransferFilter{Type: model.TransferTypeOut})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, out.ID, byType[0].ID)

	byWarehouse, err := s.ListTransfers(ctx, TransferFilter{WarehouseID: "W2"})
	require.NoError(t, err)
	require.Len(t, byWarehouse, 1)
	assert.Equal(t, move.ID, byWarehouse[0].ID)

	paged, err := s.ListTransfers(ctx, TransferFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, paged, 2)

	withLines, err := s.ListTransfers(ctx, TransferFilter{WithLines: true, Type: model.TransferTypeIn})
	require.NoError(t, err)
	require.Len(t, withLines, 1)
	assert.Len(t, withLines[0].Inventory, 1)
}

func TestDeleteTransferRemovesLines(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWarehouse(t, s, "W1")
	seedItem(t, s, "I1", "W1", "SKU-1", 10)
	seedEquipment(t, s, "E1", "W1", "SN-1")

	tr := createTransfer(t, s, model.Transfer{Type: model.TransferTypeOut, TargetID: "W1",
		Inventory: []model.TransferInventoryItem{{InventoryID: "I1", Quantity: 1}},
		Equipment: []model.TransferEquipmentItem{{EquipmentID: "E1"}}})

	require.NoError(t, s.DeleteTransfer(ctx, tr.ID))

	for _, table := range []string{"transfer_inventory_items", "transfer_equipment_items"} {
		var n int
		require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE transfer_id = ?`, tr.ID).Scan(&n))
		assert.Zero(t, n, table)
	}
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM transfers WHERE id = ?`, tr.ID).Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, s.DeleteTransfer(ctx, tr.ID), ErrNotFound)
}

func TestDeleteApprovedTransferReleasesEquipment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedWarehouse(t, s, "W1")
	seedEquipment(t, s, "E1", "W1", "SN-1")

	tr := createTransfer(t, s, model.Transfer{Type: model.TransferTypeOut, TargetID: "W1",
		Equipment: []model.TransferEquipmentItem{{EquipmentID: "E1"}}})
	_, err := s.UpdateTransferStatus(ctx, tr.ID, model.TransferStatusApproved, nil)
	require.NoError(t, err)

	e, err := s.GetEquipment(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, model.EquipmentStatusReserved, e.Status)

	require.NoError(t, s.DeleteTransfer(ctx, tr.ID))

	e, err = s.GetEquipment(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, model.EquipmentStatusAvailable, e.Status)
}

func createTransfer(t *testing.T, s *Store, in model.Transfer) *model.Transfer {
	t.Helper()
	tr, err := s.CreateTransfer(context.Background(), in)
	require.NoError(t, err)
	return tr
}
