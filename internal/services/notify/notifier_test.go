package notify

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/apperr"
	"github.com/xelth-com/eckassets/internal/models"
	"github.com/xelth-com/eckassets/internal/repository"
	"github.com/xelth-com/eckassets/internal/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunWithDatabase(m))
}

func TestNotify_RequiresRecipient(t *testing.T) {
	s := NewService(nil)
	err := s.Notify(context.Background(), Message{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRecipientOperations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	s := NewService(repository.NewNotificationRepository(db))

	alice := access.Identity{UserID: 1, CompanyID: 1, Role: access.RoleTechnician}
	bob := access.Identity{UserID: 2, CompanyID: 1, Role: access.RoleTechnician}

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Notify(ctx, Message{UserID: alice.UserID, Kind: models.NotificationMaintenance, Title: "due", Body: "pump"}))
	}
	require.NoError(t, s.Notify(ctx, Message{UserID: bob.UserID, Title: "hello", Body: "x"}))

	list, err := s.List(ctx, alice, false)
	require.NoError(t, err)
	require.Len(t, list, 3)

	unread, err := s.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread)

	n, err := s.MarkRead(ctx, alice, list[0].ID)
	require.NoError(t, err)
	assert.True(t, n.Read)
	assert.NotNil(t, n.ReadAt)

	_, err = s.MarkRead(ctx, bob, list[1].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	onlyUnread, err := s.List(ctx, alice, true)
	require.NoError(t, err)
	assert.Len(t, onlyUnread, 2)

	changed, err := s.MarkAllRead(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)

	assert.ErrorIs(t, s.Delete(ctx, bob, list[2].ID), apperr.ErrNotFound)
	require.NoError(t, s.Delete(ctx, alice, list[2].ID))

	list, err = s.List(ctx, alice, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	bobs, err := s.List(ctx, bob, false)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, models.NotificationSystem, bobs[0].Kind)
}

func TestList_CapsAtLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	s := NewService(repository.NewNotificationRepository(db))
	id := access.Identity{UserID: 5}

	for i := 0; i < repository.NotificationListLimit+5; i++ {
		require.NoError(t, s.Notify(ctx, Message{UserID: 5, Title: "t", Body: "b"}))
	}
	list, err := s.List(ctx, id, false)
	require.NoError(t, err)
	assert.Len(t, list, repository.NotificationListLimit)
}
