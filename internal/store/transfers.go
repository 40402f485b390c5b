package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/zascita/internal/model"
)

const transferColumns = `id, type, status, source_id, target_id, requester_id, receiver_id,
	transfer_date, notes, version, created_at, updated_at`

func scanTransfer(row interface{ Scan(...any) error }) (*model.Transfer, error) {
	t := &model.Transfer{}
	err := row.Scan(&t.ID, &t.Type, &t.Status, &t.SourceID, &t.TargetID, &t.RequesterID, &t.ReceiverID,
		&t.Date, &t.Notes, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTransfer stores a new PENDING transfer together with its line
// items in a single transaction. Line items must belong to the warehouse
// the transfer draws from (the target for inbound shipments). Stock levels
// are checked later, at approval and completion.
func (s *Store) CreateTransfer(ctx context.Context, t model.Transfer) (*model.Transfer, error) {
	if err := validateTransferShape(&t); err != nil {
		return nil, err
	}

	t.ID = newID(t.ID)
	t.Status = model.TransferStatusPending
	now := s.now()
	if t.Date.IsZero() {
		t.Date = now
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getWarehouse(ctx, tx, t.TargetID); err != nil {
			return referenceError(err, "target warehouse", t.TargetID)
		}
		if t.SourceID != nil {
			if _, err := s.getWarehouse(ctx, tx, *t.SourceID); err != nil {
				return referenceError(err, "source warehouse", *t.SourceID)
			}
		}
		if t.ReceiverID != nil {
			if _, err := s.getUser(ctx, tx, *t.ReceiverID); err != nil {
				return referenceError(err, "receiver", *t.ReceiverID)
			}
		}

		_, err := s.exec(ctx, tx, s.sb.Insert("transfers").
			Columns("id", "type", "status", "source_id", "target_id", "requester_id", "receiver_id",
				"transfer_date", "notes", "version", "created_at", "updated_at").
			Values(t.ID, t.Type, t.Status, t.SourceID, t.TargetID, t.RequesterID, t.ReceiverID,
				t.Date.UTC(), t.Notes, 1, now, now))
		if isUniqueViolation(err) {
			return conflictf("transfer %s already exists", t.ID)
		}
		if err != nil {
			return fmt.Errorf("creating transfer: %w", err)
		}

		holding := t.HoldingWarehouseID()
		for _, line := range t.Inventory {
			item, err := s.getInventoryItem(ctx, tx, line.InventoryID)
			if err != nil {
				return referenceError(err, "inventory item", line.InventoryID)
			}
			if item.WarehouseID != holding {
				return invalidf("inventory item %s is not held by warehouse %s", item.ID, holding)
			}

			_, err = s.exec(ctx, tx, s.sb.Insert("transfer_inventory_items").
				Columns("id", "transfer_id", "inventory_id", "quantity", "created_at").
				Values(newID(line.ID), t.ID, line.InventoryID, line.Quantity, now))
			if err != nil {
				return fmt.Errorf("creating transfer inventory line: %w", err)
			}
		}

		for _, line := range t.Equipment {
			e, err := s.getEquipment(ctx, tx, line.EquipmentID)
			if err != nil {
				return referenceError(err, "equipment", line.EquipmentID)
			}
			if problem := equipmentHoldingProblem(&t, e, holding); problem != "" {
				return invalidf("%s", problem)
			}

			_, err = s.exec(ctx, tx, s.sb.Insert("transfer_equipment_items").
				Columns("id", "transfer_id", "equipment_id", "created_at").
				Values(newID(line.ID), t.ID, line.EquipmentID, now))
			if err != nil {
				return fmt.Errorf("creating transfer equipment line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransfer(ctx, t.ID)
}

func validateTransferShape(t *model.Transfer) error {
	if !model.ValidTransferType(t.Type) {
		return invalidf("unknown transfer type %q", t.Type)
	}
	if t.TargetID == "" {
		return invalidf("target warehouse is required")
	}
	if t.Type == model.TransferTypeTransfer && t.SourceID == nil {
		return invalidf("source warehouse is required for %s", model.TransferTypeTransfer)
	}
	if t.Type == model.TransferTypeTransfer && *t.SourceID == t.TargetID {
		return invalidf("source and target warehouse must differ")
	}
	if len(t.Inventory) == 0 && len(t.Equipment) == 0 {
		return invalidf("transfer has no line items")
	}

	seen := make(map[string]bool, len(t.Inventory)+len(t.Equipment))
	for _, line := range t.Inventory {
		if line.InventoryID == "" {
			return invalidf("inventory line without item")
		}
		if line.Quantity <= 0 {
			return invalidf("quantity for item %s must be positive", line.InventoryID)
		}
		if seen["i:"+line.InventoryID] {
			return invalidf("inventory item %s listed twice", line.InventoryID)
		}
		seen["i:"+line.InventoryID] = true
	}
	for _, line := range t.Equipment {
		if line.EquipmentID == "" {
			return invalidf("equipment line without equipment")
		}
		if seen["e:"+line.EquipmentID] {
			return invalidf("equipment %s listed twice", line.EquipmentID)
		}
		seen["e:"+line.EquipmentID] = true
	}
	return nil
}

// equipmentHoldingProblem reports why a unit may not travel on a transfer
// drawing from holding, or "" when it may. Inbound shipments also accept
// units without a warehouse.
func equipmentHoldingProblem(t *model.Transfer, e *model.Equipment, holding string) string {
	if e.Status == model.EquipmentStatusRetired {
		return fmt.Sprintf("equipment %s is retired", e.ID)
	}
	if t.Type == model.TransferTypeIn && e.WarehouseID == nil {
		return ""
	}
	if e.WarehouseID == nil || *e.WarehouseID != holding {
		return fmt.Sprintf("equipment %s is not held by warehouse %s", e.ID, holding)
	}
	return ""
}

// referenceError turns a missing record named in a request body into
// invalid input.
func referenceError(err error, what, id string) error {
	if errors.Is(err, ErrNotFound) {
		return invalidf("unknown %s %s", what, id)
	}
	return err
}

// GetTransfer returns a transfer with its line items, warehouses and users.
func (s *Store) GetTransfer(ctx context.Context, id string) (*model.Transfer, error) {
	t, err := s.getTransfer(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadTransferLines(ctx, s.db, t); err != nil {
		return nil, err
	}
	if err := s.loadTransferRelations(ctx, s.db, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) getTransfer(ctx context.Context, r runner, id string) (*model.Transfer, error) {
	t, err := scanTransfer(r.QueryRowContext(ctx,
		s.rebind(`SELECT `+transferColumns+` FROM transfers WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transfer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	return t, nil
}

func (s *Store) loadTransferLines(ctx context.Context, r runner, t *model.Transfer) error {
	rows, err := r.QueryContext(ctx, s.rebind(
		`SELECT ti.id, ti.transfer_id, ti.inventory_id, ti.quantity, ti.created_at, i.name, i.sku
		 FROM transfer_inventory_items ti
		 JOIN inventory_items i ON i.id = ti.inventory_id
		 WHERE ti.transfer_id = ?
		 ORDER BY ti.created_at, ti.id`), t.ID)
	if err != nil {
		return fmt.Errorf("listing transfer inventory: %w", err)
	}
	defer rows.Close()

	t.Inventory = []model.TransferInventoryItem{}
	for rows.Next() {
		var line model.TransferInventoryItem
		if err := rows.Scan(&line.ID, &line.TransferID, &line.InventoryID, &line.Quantity, &line.CreatedAt,
			&line.ItemName, &line.ItemSKU); err != nil {
			return fmt.Errorf("scanning transfer inventory: %w", err)
		}
		t.Inventory = append(t.Inventory, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("listing transfer inventory: %w", err)
	}

	eqRows, err := r.QueryContext(ctx, s.rebind(
		`SELECT te.id, te.transfer_id, te.equipment_id, te.created_at, e.name, e.serial_number
		 FROM transfer_equipment_items te
		 JOIN equipment e ON e.id = te.equipment_id
		 WHERE te.transfer_id = ?
		 ORDER BY te.created_at, te.id`), t.ID)
	if err != nil {
		return fmt.Errorf("listing transfer equipment: %w", err)
	}
	defer eqRows.Close()

	t.Equipment = []model.TransferEquipmentItem{}
	for eqRows.Next() {
		var line model.TransferEquipmentItem
		if err := eqRows.Scan(&line.ID, &line.TransferID, &line.EquipmentID, &line.CreatedAt,
			&line.EquipmentName, &line.SerialNumber); err != nil {
			return fmt.Errorf("scanning transfer equipment: %w", err)
		}
		t.Equipment = append(t.Equipment, line)
	}
	return eqRows.Err()
}

// loadTransferRelations fills in warehouses and users, including
// soft-deleted ones so historic transfers stay readable.
func (s *Store) loadTransferRelations(ctx context.Context, r runner, t *model.Transfer) error {
	var err error
	if t.Source, err = s.lookupWarehouse(ctx, r, t.SourceID); err != nil {
		return err
	}
	if t.Target, err = s.lookupWarehouse(ctx, r, &t.TargetID); err != nil {
		return err
	}
	if t.Requester, err = s.lookupUser(ctx, r, t.RequesterID); err != nil {
		return err
	}
	if t.Receiver, err = s.lookupUser(ctx, r, t.ReceiverID); err != nil {
		return err
	}
	return nil
}

func (s *Store) lookupWarehouse(ctx context.Context, r runner, id *string) (*model.Warehouse, error) {
	if id == nil {
		return nil, nil
	}
	w, err := scanWarehouse(r.QueryRowContext(ctx,
		s.rebind(`SELECT `+warehouseColumns+` FROM warehouses WHERE id = ?`), *id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer warehouse: %w", err)
	}
	return w, nil
}

func (s *Store) lookupUser(ctx context.Context, r runner, id *string) (*model.User, error) {
	if id == nil {
		return nil, nil
	}
	u, err := scanUser(r.QueryRowContext(ctx,
		s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), *id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer user: %w", err)
	}
	return u, nil
}

// TransferFilter narrows ListTransfers.
type TransferFilter struct {
	Status      string
	Type        string
	WarehouseID string
	RequesterID string
	Limit       uint64
	Offset      uint64
	WithLines   bool
}

// ListTransfers returns transfers, newest first.
func (s *Store) ListTransfers(ctx context.Context, f TransferFilter) ([]model.Transfer, error) {
	q := s.sb.Select(transferColumns).From("transfers").OrderBy("transfer_date DESC", "created_at DESC", "id")
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": f.Status})
	}
	if f.Type != "" {
		q = q.Where(sq.Eq{"type": f.Type})
	}
	if f.WarehouseID != "" {
		q = q.Where(sq.Or{sq.Eq{"source_id": f.WarehouseID}, sq.Eq{"target_id": f.WarehouseID}})
	}
	if f.RequesterID != "" {
		q = q.Where(sq.Eq{"requester_id": f.RequesterID})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	transfers := []model.Transfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	rows.Close()

	if f.WithLines {
		for i := range transfers {
			if err := s.loadTransferLines(ctx, s.db, &transfers[i]); err != nil {
				return nil, err
			}
			if err := s.loadTransferRelations(ctx, s.db, &transfers[i]); err != nil {
				return nil, err
			}
		}
	}
	return transfers, nil
}

// DeleteTransfer removes a transfer and its line items atomically.
// Equipment reserved by an approved transfer is released. Stock already
// moved by a completed transfer is not reversed.
func (s *Store) DeleteTransfer(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := s.getTransfer(ctx, tx, id)
		if err != nil {
			return err
		}

		if t.Status == model.TransferStatusApproved {
			if err := s.loadTransferLines(ctx, tx, t); err != nil {
				return err
			}
			if err := s.releaseEquipment(ctx, tx, t); err != nil {
				return err
			}
		}

		if _, err := s.exec(ctx, tx, s.sb.Delete("transfer_inventory_items").Where(sq.Eq{"transfer_id": id})); err != nil {
			return fmt.Errorf("deleting transfer inventory: %w", err)
		}
		if _, err := s.exec(ctx, tx, s.sb.Delete("transfer_equipment_items").Where(sq.Eq{"transfer_id": id})); err != nil {
			return fmt.Errorf("deleting transfer equipment: %w", err)
		}
		if _, err := s.exec(ctx, tx, s.sb.Delete("transfers").Where(sq.Eq{"id": id})); err != nil {
			return fmt.Errorf("deleting transfer: %w", err)
		}
		return nil
	})
}
