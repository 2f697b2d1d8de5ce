package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gatepass-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

func seedNotifications(t *testing.T, repo Repository, audience enums.NotificationAudience, count int, base time.Time) []models.Notification {
	t.Helper()
	var rows []models.Notification
	for i := 0; i < count; i++ {
		row := &models.Notification{
			ID:        uuid.New(),
			Audience:  audience,
			Title:     "title",
			Message:   "message",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(context.Background(), row))
		rows = append(rows, *row)
	}
	return rows
}

func TestRepositoryListPaginatesNewestFirst(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := seedNotifications(t, repo, enums.AudienceAdmin, 5, base)
	seedNotifications(t, repo, enums.AudienceHR, 2, base)

	page, cursor, err := repo.List(ctx, listNotificationsParams{Audience: enums.AudienceAdmin, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, cursor)
	assert.Equal(t, rows[4].ID, page[0].ID)
	assert.Equal(t, rows[3].ID, page[1].ID)

	page, cursor, err = repo.List(ctx, listNotificationsParams{Audience: enums.AudienceAdmin, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, rows[2].ID, page[0].ID)
	assert.Equal(t, rows[1].ID, page[1].ID)

	page, cursor, err = repo.List(ctx, listNotificationsParams{Audience: enums.AudienceAdmin, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Nil(t, cursor)
	assert.Equal(t, rows[0].ID, page[0].ID)
}

func TestRepositoryMarkReadAndMarkAllRead(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	rows := seedNotifications(t, repo, enums.AudienceHR, 3, now.Add(-time.Hour))

	mark, err := repo.MarkRead(ctx, rows[0].ID, now)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.True(t, mark.Updated)

	mark, err = repo.MarkRead(ctx, rows[0].ID, now)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.False(t, mark.Updated)

	mark, err = repo.MarkRead(ctx, uuid.New(), now)
	require.NoError(t, err)
	assert.False(t, mark.Found)

	unread, _, err := repo.List(ctx, listNotificationsParams{Audience: enums.AudienceHR, UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	count, err := repo.MarkAllRead(ctx, enums.AudienceHR, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	unread, _, err = repo.List(ctx, listNotificationsParams{Audience: enums.AudienceHR, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestRepositoryDeleteOlderThanKeepsUnread(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := seedNotifications(t, repo, enums.AudienceAdmin, 2, old)
	fresh := seedNotifications(t, repo, enums.AudienceAdmin, 1, old.AddDate(0, 2, 0))

	_, err := repo.MarkRead(ctx, rows[0].ID, old)
	require.NoError(t, err)
	_, err = repo.MarkRead(ctx, fresh[0].ID, old)
	require.NoError(t, err)

	var deleted int64
	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		deleted, txErr = repo.DeleteOlderThan(ctx, tx, old.AddDate(0, 1, 0))
		return txErr
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, _, err := repo.List(ctx, listNotificationsParams{Audience: enums.AudienceAdmin})
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}
