package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thesistrack/thesistrack-api/internal/models"
)

func TestCreateIfAbsentDeduplicatesUnreadNotifications(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	groupID := uint(4)
	first := models.Notification{
		RecipientID:   11,
		RecipientType: models.CommenterTypeStudent,
		GroupID:       &groupID,
		Title:         "Chapter Reviewed",
		Message:       "Chapter 2 has been approved.",
		Type:          "chapter_review",
	}

	created, err := repo.CreateIfAbsent(ctx, &first)
	require.NoError(t, err)
	require.True(t, created)

	duplicate := models.Notification{
		RecipientID:   11,
		RecipientType: models.CommenterTypeStudent,
		GroupID:       &groupID,
		Title:         "Chapter Reviewed",
		Message:       "Chapter 2 has been approved.",
		Type:          "chapter_review",
	}
	created, err = repo.CreateIfAbsent(ctx, &duplicate)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, duplicate.ID, "duplicate should resolve to the existing row")

	var total int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&total).Error)
	require.Equal(t, int64(1), total)
}

func TestCreateIfAbsentAllowsNewRowAfterRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	first := models.Notification{
		RecipientID: 12,
		Title:       "Chapter Reviewed",
		Message:     "Chapter 1 needs revision.",
	}
	created, err := repo.CreateIfAbsent(ctx, &first)
	require.NoError(t, err)
	require.True(t, created)

	_, err = repo.MarkRead(ctx, first.ID, 12)
	require.NoError(t, err)

	// The same message after the first was read is a fresh event.
	second := models.Notification{
		RecipientID: 12,
		Title:       "Chapter Reviewed",
		Message:     "Chapter 1 needs revision.",
	}
	created, err = repo.CreateIfAbsent(ctx, &second)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, first.ID, second.ID)
}

func TestCreateIfAbsentDistinguishesRecipients(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	for _, recipient := range []uint{21, 22, 23} {
		notification := models.Notification{
			RecipientID: recipient,
			Title:       "Chapter Reviewed",
			Message:     "Chapter 3 has been approved.",
		}
		created, err := repo.CreateIfAbsent(ctx, &notification)
		require.NoError(t, err)
		require.True(t, created)
	}

	var total int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&total).Error)
	require.Equal(t, int64(3), total)
}

func TestListByRecipientClampsLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		notification := models.Notification{
			RecipientID: 31,
			Title:       "Title",
			Message:     "Message",
		}
		notification.Message = notification.Message + string(rune('a'+i%26)) + string(rune('a'+i/26))
		created, err := repo.CreateIfAbsent(ctx, &notification)
		require.NoError(t, err)
		require.True(t, created)
	}

	notifications, err := repo.ListByRecipient(ctx, 31, 0, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 50)

	notifications, err = repo.ListByRecipient(ctx, 31, 1000, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 50)
}

func TestMarkReadScopesToRecipient(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	notification := models.Notification{RecipientID: 41, Title: "T", Message: "M"}
	created, err := repo.CreateIfAbsent(ctx, &notification)
	require.NoError(t, err)
	require.True(t, created)

	_, err = repo.MarkRead(ctx, notification.ID, 99)
	require.Error(t, err)

	updated, err := repo.MarkRead(ctx, notification.ID, 41)
	require.NoError(t, err)
	require.True(t, updated.Read)
}
