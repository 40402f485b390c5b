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

const equipmentColumns = `id, warehouse_id, name, serial_number, category, status, condition_rating,
	photo_key, photo_mime, created_at, updated_at, deleted_at`

func scanEquipment(row interface{ Scan(...any) error }) (*model.Equipment, error) {
	e := &model.Equipment{}
	err := row.Scan(&e.ID, &e.WarehouseID, &e.Name, &e.SerialNumber, &e.Category, &e.Status, &e.Condition,
		&e.PhotoKey, &e.PhotoMIME, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func validateEquipment(e *model.Equipment) error {
	switch {
	case e.Name == "":
		return invalidf("equipment name is required")
	case e.SerialNumber == "":
		return invalidf("serial number is required")
	case !slices.Contains(model.EquipmentStatuses, e.Status):
		return invalidf("unknown equipment status %q", e.Status)
	case e.Condition < model.ConditionMin || e.Condition > model.ConditionMax:
		return invalidf("condition must be between %d and %d", model.ConditionMin, model.ConditionMax)
	}
	return nil
}

// CreateEquipment stores a new equipment unit. Status defaults to
// AVAILABLE and condition to the best rating.
func (s *Store) CreateEquipment(ctx context.Context, e model.Equipment) (*model.Equipment, error) {
	if e.Status == "" {
		e.Status = model.EquipmentStatusAvailable
	}
	if e.Condition == 0 {
		e.Condition = model.ConditionMax
	}
	if err := validateEquipment(&e); err != nil {
		return nil, err
	}

	e.ID = newID(e.ID)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if e.WarehouseID != nil {
			if _, err := s.getWarehouse(ctx, tx, *e.WarehouseID); err != nil {
				return err
			}
		}

		now := s.now()
		_, err := s.exec(ctx, tx, s.sb.Insert("equipment").
			Columns("id", "warehouse_id", "name", "serial_number", "category", "status", "condition_rating",
				"created_at", "updated_at").
			Values(e.ID, e.WarehouseID, e.Name, e.SerialNumber, e.Category, e.Status, e.Condition, now, now))
		if isUniqueViolation(err) {
			return conflictf("serial number %q is already registered", e.SerialNumber)
		}
		if err != nil {
			return fmt.Errorf("creating equipment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetEquipment(ctx, e.ID)
}

// GetEquipment returns an active equipment unit by ID.
func (s *Store) GetEquipment(ctx context.Context, id string) (*model.Equipment, error) {
	return s.getEquipment(ctx, s.db, id)
}

func (s *Store) getEquipment(ctx context.Context, r runner, id string) (*model.Equipment, error) {
	e, err := scanEquipment(r.QueryRowContext(ctx,
		s.rebind(`SELECT `+equipmentColumns+` FROM equipment WHERE id = ? AND deleted_at IS NULL`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("equipment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}
	return e, nil
}

// EquipmentFilter narrows ListEquipment.
type EquipmentFilter struct {
	WarehouseID string
	Status      string
	Category    string
}

// ListEquipment returns active equipment ordered by name.
func (s *Store) ListEquipment(ctx context.Context, f EquipmentFilter) ([]model.Equipment, error) {
	q := s.sb.Select(equipmentColumns).From("equipment").Where("deleted_at IS NULL").OrderBy("name", "serial_number")
	if f.WarehouseID != "" {
		q = q.Where(sq.Eq{"warehouse_id": f.WarehouseID})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": f.Status})
	}
	if f.Category != "" {
		q = q.Where(sq.Eq{"category": f.Category})
	}

	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	defer rows.Close()

	list := []model.Equipment{}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// UpdateEquipment replaces the mutable fields of an equipment unit.
// RESERVED is owned by the transfer workflow and cannot be set or cleared
// here.
func (s *Store) UpdateEquipment(ctx context.Context, e model.Equipment) (*model.Equipment, error) {
	if err := validateEquipment(&e); err != nil {
		return nil, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.getEquipment(ctx, tx, e.ID)
		if err != nil {
			return err
		}
		if (cur.Status == model.EquipmentStatusReserved) != (e.Status == model.EquipmentStatusReserved) {
			return conflictf("equipment reservations are managed by transfers")
		}
		if cur.Status == model.EquipmentStatusReserved && !sameWarehouse(cur.WarehouseID, e.WarehouseID) {
			return conflictf("equipment %s is reserved and cannot change warehouse", e.ID)
		}
		if e.WarehouseID != nil {
			if _, err := s.getWarehouse(ctx, tx, *e.WarehouseID); err != nil {
				return err
			}
		}

		_, err = s.exec(ctx, tx, s.sb.Update("equipment").
			Set("warehouse_id", e.WarehouseID).
			Set("name", e.Name).
			Set("serial_number", e.SerialNumber).
			Set("category", e.Category).
			Set("status", e.Status).
			Set("condition_rating", e.Condition).
			Set("updated_at", s.now()).
			Where(sq.Eq{"id": e.ID}))
		if isUniqueViolation(err) {
			return conflictf("serial number %q is already registered", e.SerialNumber)
		}
		if err != nil {
			return fmt.Errorf("updating equipment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetEquipment(ctx, e.ID)
}

// SetEquipmentPhoto records the blob key and MIME type of a unit's photo.
func (s *Store) SetEquipmentPhoto(ctx context.Context, id, key, mime string) error {
	res, err := s.exec(ctx, s.db, s.sb.Update("equipment").
		Set("photo_key", key).
		Set("photo_mime", mime).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": id}).Where("deleted_at IS NULL"))
	if err != nil {
		return fmt.Errorf("setting equipment photo: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("equipment %s: %w", id, err)
	}
	return nil
}

// DeleteEquipment soft-deletes a unit that is not reserved by a transfer.
func (s *Store) DeleteEquipment(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := s.getEquipment(ctx, tx, id)
		if err != nil {
			return err
		}
		if e.Status == model.EquipmentStatusReserved {
			return conflictf("equipment is reserved by a transfer")
		}

		_, err = s.exec(ctx, tx, s.sb.Update("equipment").
			Set("deleted_at", s.now()).
			Where(sq.Eq{"id": id}))
		if err != nil {
			return fmt.Errorf("deleting equipment: %w", err)
		}
		return nil
	})
}

// setEquipmentState moves a unit and sets its status as part of a transfer.
func (s *Store) setEquipmentState(ctx context.Context, r runner, id string, warehouseID *string, status string) error {
	res, err := s.exec(ctx, r, s.sb.Update("equipment").
		Set("warehouse_id", warehouseID).
		Set("status", status).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": id}).Where("deleted_at IS NULL"))
	if err != nil {
		return fmt.Errorf("updating equipment state: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("equipment %s: %w", id, err)
	}
	return nil
}

func sameWarehouse(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
