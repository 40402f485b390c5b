package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/zascita/internal/model"
)

// StatusChange describes an applied transfer status transition.
type StatusChange struct {
	Transfer *model.Transfer
	From     string
	To       string
}

// UpdateTransferStatus moves a transfer through its workflow. The status
// write, stock checks, equipment reservations and ledger movements all
// happen in one transaction. When version is non-nil it must match the
// stored version; the stored version is always checked on write.
func (s *Store) UpdateTransferStatus(ctx context.Context, id, to string, version *int) (*StatusChange, error) {
	if !model.ValidTransferStatus(to) {
		return nil, invalidf("unknown transfer status %q", to)
	}

	change := &StatusChange{To: to}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := s.getTransfer(ctx, tx, id)
		if err != nil {
			return err
		}
		if version != nil && *version != t.Version {
			return ErrVersionConflict
		}
		if !model.CanTransition(t.Status, to) {
			return &InvalidTransitionError{From: t.Status, To: to}
		}
		change.From = t.Status

		res, err := s.exec(ctx, tx, s.sb.Update("transfers").
			Set("status", to).
			Set("version", sq.Expr("version + 1")).
			Set("updated_at", s.now()).
			Where(sq.Eq{"id": id, "version": t.Version}))
		if err != nil {
			return fmt.Errorf("updating transfer status: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("reading affected rows: %w", err)
		} else if n == 0 {
			return ErrVersionConflict
		}

		if err := s.loadTransferLines(ctx, tx, t); err != nil {
			return err
		}

		switch to {
		case model.TransferStatusApproved:
			if err := s.checkStock(ctx, tx, t); err != nil {
				return err
			}
			if err := s.reserveEquipment(ctx, tx, t); err != nil {
				return err
			}
		case model.TransferStatusCompleted:
			if err := s.applyLedger(ctx, tx, t); err != nil {
				return err
			}
		case model.TransferStatusRejected, model.TransferStatusCancelled:
			if t.Status == model.TransferStatusApproved {
				if err := s.releaseEquipment(ctx, tx, t); err != nil {
					return err
				}
			}
		}

		if t.RequesterID != nil && (to == model.TransferStatusCompleted || to == model.TransferStatusRejected) {
			n := transferNotification(t, to)
			if err := s.insertNotification(ctx, tx, &n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	change.Transfer, err = s.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	return change, nil
}

// checkStock verifies the origin warehouse still holds every requested
// quantity. Inbound shipments have no origin to check.
func (s *Store) checkStock(ctx context.Context, r runner, t *model.Transfer) error {
	if t.OriginWarehouseID() == nil {
		return nil
	}
	for _, line := range t.Inventory {
		item, err := s.getInventoryItem(ctx, r, line.InventoryID)
		if err != nil {
			return err
		}
		if item.Quantity < line.Quantity {
			return &InsufficientStockError{InventoryID: item.ID, Available: item.Quantity, Requested: line.Quantity}
		}
	}
	return nil
}

// reserveEquipment marks every unit RESERVED, remembering the status it
// had so a rejection or cancellation can restore it.
func (s *Store) reserveEquipment(ctx context.Context, r runner, t *model.Transfer) error {
	holding := t.HoldingWarehouseID()
	for _, line := range t.Equipment {
		e, err := s.getEquipment(ctx, r, line.EquipmentID)
		if err != nil {
			return err
		}
		if problem := equipmentHoldingProblem(t, e, holding); problem != "" {
			return conflictf("%s", problem)
		}

		switch {
		case e.Status == model.EquipmentStatusReserved:
			return conflictf("equipment %s is already reserved", e.ID)
		case t.Type != model.TransferTypeIn && e.Status != model.EquipmentStatusAvailable:
			return conflictf("equipment %s is %s", e.ID, e.Status)
		}

		_, err = s.exec(ctx, r, s.sb.Update("transfer_equipment_items").
			Set("prior_status", e.Status).
			Where(sq.Eq{"transfer_id": t.ID, "equipment_id": e.ID}))
		if err != nil {
			return fmt.Errorf("recording equipment status: %w", err)
		}
		if err := s.setEquipmentState(ctx, r, e.ID, e.WarehouseID, model.EquipmentStatusReserved); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) releaseEquipment(ctx context.Context, r runner, t *model.Transfer) error {
	for _, line := range t.Equipment {
		var prior sql.NullString
		err := r.QueryRowContext(ctx, s.rebind(
			`SELECT prior_status FROM transfer_equipment_items WHERE transfer_id = ? AND equipment_id = ?`),
			t.ID, line.EquipmentID).Scan(&prior)
		if err != nil {
			return fmt.Errorf("reading equipment status: %w", err)
		}
		status := model.EquipmentStatusAvailable
		if prior.Valid && prior.String != "" {
			status = prior.String
		}

		_, err = s.exec(ctx, r, s.sb.Update("equipment").
			Set("status", status).
			Set("updated_at", s.now()).
			Where(sq.Eq{"id": line.EquipmentID, "status": model.EquipmentStatusReserved}))
		if err != nil {
			return fmt.Errorf("releasing equipment: %w", err)
		}
	}
	return nil
}

// applyLedger performs the stock movements of a completed transfer.
func (s *Store) applyLedger(ctx context.Context, r runner, t *model.Transfer) error {
	for _, line := range t.Inventory {
		switch t.Type {
		case model.TransferTypeOut:
			if _, err := s.applyInventoryDelta(ctx, r, line.InventoryID, -line.Quantity); err != nil {
				return err
			}
		case model.TransferTypeTransfer:
			src, err := s.applyInventoryDelta(ctx, r, line.InventoryID, -line.Quantity)
			if err != nil {
				return err
			}
			if err := s.creditTarget(ctx, r, src, t.TargetID, line.Quantity); err != nil {
				return err
			}
		case model.TransferTypeIn:
			if _, err := s.applyInventoryDelta(ctx, r, line.InventoryID, line.Quantity); err != nil {
				return err
			}
		}
	}

	holding := t.HoldingWarehouseID()
	for _, line := range t.Equipment {
		e, err := s.getEquipment(ctx, r, line.EquipmentID)
		if err != nil {
			return err
		}
		if e.Status != model.EquipmentStatusReserved {
			return conflictf("equipment %s is no longer reserved", e.ID)
		}
		if problem := equipmentHoldingProblem(t, e, holding); problem != "" {
			return conflictf("%s", problem)
		}

		if t.Type == model.TransferTypeOut {
			err = s.setEquipmentState(ctx, r, line.EquipmentID, nil, model.EquipmentStatusInUse)
		} else {
			target := t.TargetID
			err = s.setEquipmentState(ctx, r, line.EquipmentID, &target, model.EquipmentStatusAvailable)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// creditTarget adds quantity to the item with the source's SKU at the
// target warehouse, creating it there when missing.
func (s *Store) creditTarget(ctx context.Context, r runner, src *model.InventoryItem, targetID string, quantity int) error {
	dst, err := s.findInventoryBySKU(ctx, r, targetID, src.SKU)
	if err != nil {
		return err
	}
	if dst != nil {
		_, err := s.applyInventoryDelta(ctx, r, dst.ID, quantity)
		return err
	}

	item := model.InventoryItem{
		ID:          newID(""),
		WarehouseID: targetID,
		Name:        src.Name,
		SKU:         src.SKU,
		Category:    src.Category,
		Unit:        src.Unit,
		Quantity:    quantity,
		MinQuantity: src.MinQuantity,
		MaxQuantity: src.MaxQuantity,
		UnitPrice:   src.UnitPrice,
		ExpiryDate:  src.ExpiryDate,
	}
	return s.insertInventoryItem(ctx, r, &item)
}

func transferNotification(t *model.Transfer, to string) model.Notification {
	n := model.Notification{
		UserID: *t.RequesterID,
		Type:   model.NotificationTypeInfo,
		Title:  "Transfer completed",
	}
	if to == model.TransferStatusRejected {
		n.Type = model.NotificationTypeWarning
		n.Title = "Transfer rejected"
	}
	n.Message = fmt.Sprintf("%s transfer %s is now %s", t.Type, t.ID, to)
	return n
}
