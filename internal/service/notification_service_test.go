package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/thesistrack/thesistrack-api/internal/dto"
	"github.com/thesistrack/thesistrack-api/internal/models"
	"github.com/thesistrack/thesistrack-api/internal/repository"
)

func newNotificationService(t *testing.T, db *gorm.DB) NotificationService {
	t.Helper()
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewGroupRepository(db),
		nil,
		"",
		nil,
		validate,
		zerolog.Nop(),
	)
}

func TestPublishDeduplicatesPendingNotifications(t *testing.T) {
	db := setupServiceDB(t)
	svc := newNotificationService(t, db)

	payload := dto.NotificationCreateRequest{
		RecipientID:   7,
		RecipientType: models.CommenterTypeStudent,
		Title:         "Chapter Reviewed",
		Message:       "Chapter 1 was approved",
		Type:          "review",
	}

	first, created, err := svc.Publish(context.Background(), payload)
	require.NoError(t, err)
	require.True(t, created)
	require.NotZero(t, first.ID)

	duplicate, created, err := svc.Publish(context.Background(), payload)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, duplicate.ID)

	// Once the original is read, the same message may be delivered again.
	_, err = svc.MarkRead(context.Background(), first.ID, 7)
	require.NoError(t, err)

	third, created, err := svc.Publish(context.Background(), payload)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, first.ID, third.ID)
}

func TestPublishValidatesAndSanitizes(t *testing.T) {
	db := setupServiceDB(t)
	svc := newNotificationService(t, db)

	_, _, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		RecipientType: models.CommenterTypeStudent,
		Title:         "missing recipient",
		Message:       "body",
		Type:          "review",
	})
	require.Error(t, err)

	_, _, err = svc.Publish(context.Background(), dto.NotificationCreateRequest{
		RecipientID:   7,
		RecipientType: models.CommenterTypeStudent,
		Title:         "only markup",
		Message:       "<script>alert(1)</script>",
		Type:          "review",
	})
	require.Error(t, err)

	clean, created, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		RecipientID:   7,
		RecipientType: models.CommenterTypeStudent,
		Title:         "markup stripped",
		Message:       "<b>revise</b> section two",
		Type:          "review",
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "revise section two", clean.Message)
}

func TestNotifyGroupCountsFreshDeliveries(t *testing.T) {
	db := setupServiceDB(t)
	group := seedGroup(t, db, 42, 7, 8, 9)
	svc := newNotificationService(t, db)

	created, err := svc.NotifyGroup(context.Background(), group.ID, "Chapter Reviewed", "Chapter 3 needs revision", "review")
	require.NoError(t, err)
	require.Equal(t, 3, created)

	// A retry creates nothing new while the originals are unread.
	created, err = svc.NotifyGroup(context.Background(), group.ID, "Chapter Reviewed", "Chapter 3 needs revision", "review")
	require.NoError(t, err)
	require.Zero(t, created)

	stored, err := svc.List(context.Background(), 8, 10, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, group.ID, *stored[0].GroupID)
}

func TestSubscribeReceivesPublishedNotifications(t *testing.T) {
	db := setupServiceDB(t)
	svc := newNotificationService(t, db)

	events, cancel := svc.Subscribe(7)
	defer cancel()

	published, created, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		RecipientID:   7,
		RecipientType: models.CommenterTypeStudent,
		Title:         "Chapter Reviewed",
		Message:       "Chapter 2 was approved",
		Type:          "review",
	})
	require.NoError(t, err)
	require.True(t, created)

	select {
	case event := <-events:
		require.Equal(t, published.ID, event.ID)
		require.Equal(t, "Chapter Reviewed", event.Title)
	case <-time.After(time.Second):
		t.Fatal("expected a streamed notification")
	}

	// Other recipients never see the event.
	others, cancelOthers := svc.Subscribe(8)
	defer cancelOthers()
	select {
	case event := <-others:
		t.Fatalf("unexpected notification for other recipient: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	db := setupServiceDB(t)
	svc := newNotificationService(t, db)

	published, _, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		RecipientID:   7,
		RecipientType: models.CommenterTypeStudent,
		Title:         "Chapter Reviewed",
		Message:       "Chapter 1 was approved",
		Type:          "review",
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), published.ID, 99)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	read, err := svc.MarkRead(context.Background(), published.ID, 7)
	require.NoError(t, err)
	require.True(t, read.Read)
}
