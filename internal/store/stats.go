package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/zascita/internal/model"
)

// Stats maps a category to the number of records in it.
type Stats map[string]int

// countBy runs a grouped COUNT(*) and returns every known category,
// including empty ones.
func (s *Store) countBy(ctx context.Context, table, column string, categories []string, where sq.Sqlizer) (Stats, error) {
	q := s.sb.Select(column, "COUNT(*)").From(table).GroupBy(column)
	if where != nil {
		q = q.Where(where)
	}

	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("counting %s by %s: %w", table, column, err)
	}
	defer rows.Close()

	stats := make(Stats, len(categories))
	for _, c := range categories {
		stats[c] = 0
	}
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scanning %s stats: %w", table, err)
		}
		stats[category] = count
	}
	return stats, rows.Err()
}

// UserStats counts active users by role.
func (s *Store) UserStats(ctx context.Context) (Stats, error) {
	return s.countBy(ctx, "users", "role", model.Roles, sq.Expr("deleted_at IS NULL"))
}

// TaskStats counts tasks by status.
func (s *Store) TaskStats(ctx context.Context) (Stats, error) {
	return s.countBy(ctx, "tasks", "status", model.TaskStatuses, nil)
}

// EquipmentStats counts active equipment by status.
func (s *Store) EquipmentStats(ctx context.Context) (Stats, error) {
	return s.countBy(ctx, "equipment", "status", model.EquipmentStatuses, sq.Expr("deleted_at IS NULL"))
}

// WarehouseStats counts active warehouses by status.
func (s *Store) WarehouseStats(ctx context.Context) (Stats, error) {
	return s.countBy(ctx, "warehouses", "status", model.WarehouseStatuses, sq.Expr("deleted_at IS NULL"))
}

// InventoryStats counts inventory items by status.
func (s *Store) InventoryStats(ctx context.Context) (Stats, error) {
	return s.countBy(ctx, "inventory_items", "status", model.InventoryStatuses, nil)
}

// NotificationStats counts notifications by type, plus the unread total.
func (s *Store) NotificationStats(ctx context.Context) (Stats, error) {
	stats, err := s.countBy(ctx, "notifications", "type", model.NotificationTypes, nil)
	if err != nil {
		return nil, err
	}

	var unread int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE read_at IS NULL`).Scan(&unread)
	if err != nil {
		return nil, fmt.Errorf("counting unread notifications: %w", err)
	}
	stats["unread"] = unread
	return stats, nil
}
