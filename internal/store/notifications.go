package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/zascita/internal/model"
)

const notificationColumns = "id, user_id, type, title, message, read_at, created_at"

// CreateNotification stores a notification for a user.
func (s *Store) CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error) {
	if n.Type == "" {
		n.Type = model.NotificationTypeInfo
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getUser(ctx, tx, n.UserID); err != nil {
			return err
		}
		return s.insertNotification(ctx, tx, &n)
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) insertNotification(ctx context.Context, r runner, n *model.Notification) error {
	if !slices.Contains(model.NotificationTypes, n.Type) {
		return invalidf("unknown notification type %q", n.Type)
	}
	if n.Title == "" {
		return invalidf("notification title is required")
	}

	n.ID = newID(n.ID)
	n.CreatedAt = s.now()
	_, err := s.exec(ctx, r, s.sb.Insert("notifications").
		Columns("id", "user_id", "type", "title", "message", "created_at").
		Values(n.ID, n.UserID, n.Type, n.Title, n.Message, n.CreatedAt))
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	q := s.sb.Select(notificationColumns).From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id")
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}

	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	list := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkNotificationRead marks one of the user's notifications as read.
// Marking an already read notification is a no-op.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.exec(ctx, s.db, s.sb.Update("notifications").
		Set("read_at", sq.Expr("COALESCE(read_at, ?)", s.now())).
		Where(sq.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("notification %s: %w", id, err)
	}
	return nil
}
