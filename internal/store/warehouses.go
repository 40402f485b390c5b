package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/zascita/internal/model"
)

const warehouseColumns = "id, name, type, status, address, capacity, created_at, updated_at, deleted_at"

func scanWarehouse(row interface{ Scan(...any) error }) (*model.Warehouse, error) {
	w := &model.Warehouse{}
	err := row.Scan(&w.ID, &w.Name, &w.Type, &w.Status, &w.Address, &w.Capacity,
		&w.CreatedAt, &w.UpdatedAt, &w.DeletedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func validateWarehouse(w *model.Warehouse) error {
	if w.Name == "" {
		return invalidf("warehouse name is required")
	}
	if w.Type != model.WarehouseTypeMain && w.Type != model.WarehouseTypeRegional && w.Type != model.WarehouseTypeField {
		return invalidf("unknown warehouse type %q", w.Type)
	}
	if !slices.Contains(model.WarehouseStatuses, w.Status) {
		return invalidf("unknown warehouse status %q", w.Status)
	}
	if w.Capacity < 0 {
		return invalidf("capacity cannot be negative")
	}
	return nil
}

// CreateWarehouse stores a new warehouse. Status defaults to ACTIVE.
func (s *Store) CreateWarehouse(ctx context.Context, w model.Warehouse) (*model.Warehouse, error) {
	if w.Status == "" {
		w.Status = model.WarehouseStatusActive
	}
	if err := validateWarehouse(&w); err != nil {
		return nil, err
	}

	w.ID = newID(w.ID)
	now := s.now()
	_, err := s.exec(ctx, s.db, s.sb.Insert("warehouses").
		Columns("id", "name", "type", "status", "address", "capacity", "created_at", "updated_at").
		Values(w.ID, w.Name, w.Type, w.Status, w.Address, w.Capacity, now, now))
	if isUniqueViolation(err) {
		return nil, conflictf("warehouse %s already exists", w.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("creating warehouse: %w", err)
	}

	return s.GetWarehouse(ctx, w.ID)
}

// GetWarehouse returns an active warehouse by ID.
func (s *Store) GetWarehouse(ctx context.Context, id string) (*model.Warehouse, error) {
	return s.getWarehouse(ctx, s.db, id)
}

func (s *Store) getWarehouse(ctx context.Context, r runner, id string) (*model.Warehouse, error) {
	w, err := scanWarehouse(r.QueryRowContext(ctx,
		s.rebind(`SELECT `+warehouseColumns+` FROM warehouses WHERE id = ? AND deleted_at IS NULL`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("warehouse %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting warehouse: %w", err)
	}
	return w, nil
}

// WarehouseFilter narrows ListWarehouses.
type WarehouseFilter struct {
	Type   string
	Status string
}

// ListWarehouses returns active warehouses ordered by name.
func (s *Store) ListWarehouses(ctx context.Context, f WarehouseFilter) ([]model.Warehouse, error) {
	q := s.sb.Select(warehouseColumns).From("warehouses").Where("deleted_at IS NULL").OrderBy("name", "id")
	if f.Type != "" {
		q = q.Where(sq.Eq{"type": f.Type})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": f.Status})
	}

	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("listing warehouses: %w", err)
	}
	defer rows.Close()

	warehouses := []model.Warehouse{}
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning warehouse: %w", err)
		}
		warehouses = append(warehouses, *w)
	}
	return warehouses, rows.Err()
}

// UpdateWarehouse replaces the mutable fields of a warehouse.
func (s *Store) UpdateWarehouse(ctx context.Context, w model.Warehouse) (*model.Warehouse, error) {
	if err := validateWarehouse(&w); err != nil {
		return nil, err
	}

	res, err := s.exec(ctx, s.db, s.sb.Update("warehouses").
		Set("name", w.Name).
		Set("type", w.Type).
		Set("status", w.Status).
		Set("address", w.Address).
		Set("capacity", w.Capacity).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": w.ID}).Where("deleted_at IS NULL"))
	if err != nil {
		return nil, fmt.Errorf("updating warehouse: %w", err)
	}
	if err := affected(res); err != nil {
		return nil, fmt.Errorf("warehouse %s: %w", w.ID, err)
	}

	return s.GetWarehouse(ctx, w.ID)
}

// DeleteWarehouse soft-deletes a warehouse. Fails while it still holds
// stock or equipment.
func (s *Store) DeleteWarehouse(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getWarehouse(ctx, tx, id); err != nil {
			return err
		}

		var stock, equipment int
		err := tx.QueryRowContext(ctx,
			s.rebind(`SELECT COUNT(*) FROM inventory_items WHERE warehouse_id = ? AND quantity > 0`), id,
		).Scan(&stock)
		if err != nil {
			return fmt.Errorf("checking warehouse inventory: %w", err)
		}
		err = tx.QueryRowContext(ctx,
			s.rebind(`SELECT COUNT(*) FROM equipment WHERE warehouse_id = ? AND deleted_at IS NULL`), id,
		).Scan(&equipment)
		if err != nil {
			return fmt.Errorf("checking warehouse equipment: %w", err)
		}
		if stock > 0 || equipment > 0 {
			return conflictf("warehouse still holds %d stocked items and %d equipment units", stock, equipment)
		}

		_, err = s.exec(ctx, tx, s.sb.Update("warehouses").
			Set("deleted_at", s.now()).
			Where(sq.Eq{"id": id}))
		if err != nil {
			return fmt.Errorf("deleting warehouse: %w", err)
		}
		return nil
	})
}
