package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zascita/internal/model"
)

func TestWarehouseCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w, err := s.CreateWarehouse(ctx, model.Warehouse{Name: "Central", Type: model.WarehouseTypeMain, Capacity: 100})
	require.NoError(t, err)
	assert.Equal(t, model.WarehouseStatusActive, w.Status)

	w.Status = model.WarehouseStatusMaintenance
	w.Address = "Main street 1"
	updated, err := s.UpdateWarehouse(ctx, *w)
	require.NoError(t, err)
	assert.Equal(t, model.WarehouseStatusMaintenance, updated.Status)
	assert.Equal(t, "Main street 1", updated.Address)

	list, err := s.ListWarehouses(ctx, WarehouseFilter{Status: model.WarehouseStatusMaintenance})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteWarehouse(ctx, w.ID))
	_, err = s.GetWarehouse(ctx, w.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateWarehouseValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateWarehouse(context.Background(), model.Warehouse{Name: "X", Type: "SHED"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CreateWarehouse(context.Background(), model.Warehouse{Type: model.WarehouseTypeField})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteWarehouseWithStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedWarehouse(t, s, "W1")
	item := seedItem(t, s, "I1", "W1", "SKU-1", 3)

	assert.ErrorIs(t, s.DeleteWarehouse(ctx, "W1"), ErrConflict)

	_, err := s.AdjustInventory(ctx, item.ID, -3)
	require.NoError(t, err)
	assert.NoError(t, s.DeleteWarehouse(ctx, "W1"))
}

func TestDeleteWarehouseWithEquipment(t *testing.T) {
	s := newTestStore(t)

	seedWarehouse(t, s, "W1")
	seedEquipment(t, s, "E1", "W1", "SN-1")

	assert.ErrorIs(t, s.DeleteWarehouse(context.Background(), "W1"), ErrConflict)
}
