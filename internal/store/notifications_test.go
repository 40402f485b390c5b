package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zascita/internal/model"
)

func TestNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice", model.RoleUser)
	bob := seedUser(t, s, "bob", model.RoleUser)

	n, err := s.CreateNotification(ctx, model.Notification{UserID: alice.ID, Title: "Evacuation drill"})
	require.NoError(t, err)
	assert.Equal(t, model.NotificationTypeInfo, n.Type)

	_, err = s.CreateNotification(ctx, model.Notification{UserID: alice.ID, Type: "SPAM", Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, s.MarkNotificationRead(ctx, n.ID, bob.ID), ErrNotFound)
	require.NoError(t, s.MarkNotificationRead(ctx, n.ID, alice.ID))
	require.NoError(t, s.MarkNotificationRead(ctx, n.ID, alice.ID))

	unread, err := s.ListNotifications(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := s.ListNotifications(ctx, alice.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].ReadAt)
}
