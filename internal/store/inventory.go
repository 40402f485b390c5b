package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/zascita/internal/model"
)

const inventoryColumns = `i.id, i.warehouse_id, i.name, i.sku, i.category, i.unit, i.quantity,
	i.min_quantity, i.max_quantity, i.unit_price, i.expiry_date, i.status, i.created_at, i.updated_at,
	w.name AS warehouse_name`

func (s *Store) inventorySelect() sq.SelectBuilder {
	return s.sb.Select(inventoryColumns).
		From("inventory_items i").
		Join("warehouses w ON w.id = i.warehouse_id")
}

func scanInventoryItem(row interface{ Scan(...any) error }) (*model.InventoryItem, error) {
	it := &model.InventoryItem{}
	err := row.Scan(&it.ID, &it.WarehouseID, &it.Name, &it.SKU, &it.Category, &it.Unit, &it.Quantity,
		&it.MinQuantity, &it.MaxQuantity, &it.UnitPrice, &it.ExpiryDate, &it.Status, &it.CreatedAt, &it.UpdatedAt,
		&it.WarehouseName)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func validateInventoryItem(it *model.InventoryItem) error {
	switch {
	case it.Name == "":
		return invalidf("item name is required")
	case it.SKU == "":
		return invalidf("item sku is required")
	case it.Quantity < 0:
		return invalidf("quantity cannot be negative")
	case it.MinQuantity < 0 || it.MaxQuantity < 0:
		return invalidf("quantity thresholds cannot be negative")
	case it.MaxQuantity > 0 && it.MaxQuantity < it.MinQuantity:
		return invalidf("max quantity is below min quantity")
	case it.UnitPrice.IsNegative():
		return invalidf("unit price cannot be negative")
	}
	return nil
}

// CreateInventoryItem stores a new item at a warehouse. Its status is
// derived from quantity and expiry unless it is explicitly RESERVED.
func (s *Store) CreateInventoryItem(ctx context.Context, it model.InventoryItem) (*model.InventoryItem, error) {
	if err := validateInventoryItem(&it); err != nil {
		return nil, err
	}

	it.ID = newID(it.ID)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getWarehouse(ctx, tx, it.WarehouseID); err != nil {
			return err
		}
		return s.insertInventoryItem(ctx, tx, &it)
	})
	if err != nil {
		return nil, err
	}

	return s.GetInventoryItem(ctx, it.ID)
}

func (s *Store) insertInventoryItem(ctx context.Context, r runner, it *model.InventoryItem) error {
	now := s.now()
	it.Status = model.DeriveInventoryStatus(it.Quantity, it.MinQuantity, it.ExpiryDate, it.Status, now)

	_, err := s.exec(ctx, r, s.sb.Insert("inventory_items").
		Columns("id", "warehouse_id", "name", "sku", "category", "unit", "quantity",
			"min_quantity", "max_quantity", "unit_price", "expiry_date", "status", "created_at", "updated_at").
		Values(it.ID, it.WarehouseID, it.Name, it.SKU, it.Category, it.Unit, it.Quantity,
			it.MinQuantity, it.MaxQuantity, it.UnitPrice.Round(2), it.ExpiryDate, it.Status, now, now))
	if isUniqueViolation(err) {
		return conflictf("sku %q already exists at warehouse %s", it.SKU, it.WarehouseID)
	}
	if err != nil {
		return fmt.Errorf("creating inventory item: %w", err)
	}
	return nil
}

// GetInventoryItem returns an inventory item by ID.
func (s *Store) GetInventoryItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	return s.getInventoryItem(ctx, s.db, id)
}

func (s *Store) getInventoryItem(ctx context.Context, r runner, id string) (*model.InventoryItem, error) {
	query, args, err := s.inventorySelect().Where(sq.Eq{"i.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	it, err := scanInventoryItem(r.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inventory item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory item: %w", err)
	}
	return it, nil
}

// findInventoryBySKU returns the item with the given SKU at a warehouse, or
// nil when there is none.
func (s *Store) findInventoryBySKU(ctx context.Context, r runner, warehouseID, sku string) (*model.InventoryItem, error) {
	query, args, err := s.inventorySelect().
		Where(sq.Eq{"i.warehouse_id": warehouseID, "i.sku": sku}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	it, err := scanInventoryItem(r.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding inventory by sku: %w", err)
	}
	return it, nil
}

// InventoryFilter narrows ListInventory.
type InventoryFilter struct {
	WarehouseID string
	Status      string
	Category    string
	Search      string
}

// ListInventory returns inventory items ordered by name.
func (s *Store) ListInventory(ctx context.Context, f InventoryFilter) ([]model.InventoryItem, error) {
	q := s.inventorySelect().OrderBy("i.name", "w.name", "i.id")
	if f.WarehouseID != "" {
		q = q.Where(sq.Eq{"i.warehouse_id": f.WarehouseID})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"i.status": f.Status})
	}
	if f.Category != "" {
		q = q.Where(sq.Eq{"i.category": f.Category})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(sq.Or{sq.Like{"i.name": pattern}, sq.Like{"i.sku": pattern}})
	}

	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	items := []model.InventoryItem{}
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inventory item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// UpdateInventoryItem replaces the descriptive fields and thresholds of an
// item. Quantity and warehouse are only changed through adjustments and
// transfers.
func (s *Store) UpdateInventoryItem(ctx context.Context, it model.InventoryItem) (*model.InventoryItem, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.getInventoryItem(ctx, tx, it.ID)
		if err != nil {
			return err
		}
		it.Quantity = cur.Quantity
		if err := validateInventoryItem(&it); err != nil {
			return err
		}

		now := s.now()
		status := model.DeriveInventoryStatus(it.Quantity, it.MinQuantity, it.ExpiryDate, it.Status, now)
		_, err = s.exec(ctx, tx, s.sb.Update("inventory_items").
			Set("name", it.Name).
			Set("sku", it.SKU).
			Set("category", it.Category).
			Set("unit", it.Unit).
			Set("min_quantity", it.MinQuantity).
			Set("max_quantity", it.MaxQuantity).
			Set("unit_price", it.UnitPrice.Round(2)).
			Set("expiry_date", it.ExpiryDate).
			Set("status", status).
			Set("updated_at", now).
			Where(sq.Eq{"id": it.ID}))
		if isUniqueViolation(err) {
			return conflictf("sku %q already exists at warehouse %s", it.SKU, cur.WarehouseID)
		}
		if err != nil {
			return fmt.Errorf("updating inventory item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetInventoryItem(ctx, it.ID)
}

// AdjustInventory changes an item's quantity by delta. The quantity can
// never go below zero.
func (s *Store) AdjustInventory(ctx context.Context, id string, delta int) (*model.InventoryItem, error) {
	if delta == 0 {
		return nil, invalidf("adjustment cannot be zero")
	}

	var item *model.InventoryItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		item, err = s.applyInventoryDelta(ctx, tx, id, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// applyInventoryDelta moves an item's quantity with a guarded update and
// re-derives its status.
func (s *Store) applyInventoryDelta(ctx context.Context, r runner, id string, delta int) (*model.InventoryItem, error) {
	res, err := r.ExecContext(ctx,
		s.rebind(`UPDATE inventory_items SET quantity = quantity + ?, updated_at = ?
		 WHERE id = ? AND quantity + ? >= 0`),
		delta, s.now(), id, delta,
	)
	if err != nil {
		return nil, fmt.Errorf("updating inventory quantity: %w", err)
	}

	if err := affected(res); err != nil {
		cur, gerr := s.getInventoryItem(ctx, r, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, &InsufficientStockError{InventoryID: id, Available: cur.Quantity, Requested: -delta}
	}

	return s.refreshInventoryStatus(ctx, r, id)
}

func (s *Store) refreshInventoryStatus(ctx context.Context, r runner, id string) (*model.InventoryItem, error) {
	it, err := s.getInventoryItem(ctx, r, id)
	if err != nil {
		return nil, err
	}

	status := model.DeriveInventoryStatus(it.Quantity, it.MinQuantity, it.ExpiryDate, it.Status, s.now())
	if status == it.Status {
		return it, nil
	}

	_, err = s.exec(ctx, r, s.sb.Update("inventory_items").Set("status", status).Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("updating inventory status: %w", err)
	}
	it.Status = status
	return it, nil
}

// DeleteInventoryItem removes an item that no transfer references.
func (s *Store) DeleteInventoryItem(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getInventoryItem(ctx, tx, id); err != nil {
			return err
		}

		var refs int
		err := tx.QueryRowContext(ctx,
			s.rebind(`SELECT COUNT(*) FROM transfer_inventory_items WHERE inventory_id = ?`), id,
		).Scan(&refs)
		if err != nil {
			return fmt.Errorf("checking inventory references: %w", err)
		}
		if refs > 0 {
			return conflictf("inventory item is referenced by %d transfer line items", refs)
		}

		if _, err := s.exec(ctx, tx, s.sb.Delete("inventory_items").Where(sq.Eq{"id": id})); err != nil {
			return fmt.Errorf("deleting inventory item: %w", err)
		}
		return nil
	})
}
