package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thesistrack/thesistrack-api/internal/models"
)

func TestInsertVersionAssignsMonotonicVersions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChapterRepository(db)
	ctx := context.Background()

	first := models.ChapterVersion{GroupID: 1, ChapterNumber: 2, FilePath: "a.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &first))
	require.Equal(t, 1, first.Version)
	require.True(t, first.IsCurrent)
	require.Equal(t, models.ChapterStatusUploaded, first.Status)

	second := models.ChapterVersion{GroupID: 1, ChapterNumber: 2, FilePath: "b.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &second))
	require.Equal(t, 2, second.Version)

	third := models.ChapterVersion{GroupID: 1, ChapterNumber: 2, FilePath: "c.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &third))
	require.Equal(t, 3, third.Version)
}

func TestInsertVersionKeepsExactlyOneCurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChapterRepository(db)
	ctx := context.Background()

	first := models.ChapterVersion{GroupID: 3, ChapterNumber: 1, FilePath: "v1.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &first))
	second := models.ChapterVersion{GroupID: 3, ChapterNumber: 1, FilePath: "v2.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &second))

	var currentCount int64
	require.NoError(t, db.Model(&models.ChapterVersion{}).
		Where("group_id = ? AND chapter_number = ? AND is_current = ?", 3, 1, true).
		Count(&currentCount).Error)
	require.Equal(t, int64(1), currentCount)

	replaced, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, replaced.IsCurrent)
	require.NotNil(t, replaced.ReplacedByID)
	require.Equal(t, second.ID, *replaced.ReplacedByID)

	current, err := repo.CurrentVersion(ctx, 3, 1)
	require.NoError(t, err)
	require.Equal(t, second.ID, current.ID)
	require.Nil(t, current.ReplacedByID)
}

func TestInsertVersionTracksChapterSlotsIndependently(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChapterRepository(db)
	ctx := context.Background()

	one := models.ChapterVersion{GroupID: 5, ChapterNumber: 1, FilePath: "c1.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &one))
	two := models.ChapterVersion{GroupID: 5, ChapterNumber: 2, FilePath: "c2.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &two))

	require.Equal(t, 1, one.Version)
	require.Equal(t, 1, two.Version)
	require.True(t, one.IsCurrent)
	require.True(t, two.IsCurrent)
}

func TestInsertVersionSlotVersionUniquenessEnforcedBySchema(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChapterRepository(db)
	ctx := context.Background()

	first := models.ChapterVersion{GroupID: 11, ChapterNumber: 3, FilePath: "v1.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &first))
	require.Equal(t, 1, first.Version)

	// A write that bypasses InsertVersion and reuses an assigned version
	// number must be rejected by the unique index, not silently stored.
	duplicate := models.ChapterVersion{
		GroupID:       11,
		ChapterNumber: 3,
		Version:       1,
		FilePath:      "dup.pdf",
		IsCurrent:     true,
		Status:        models.ChapterStatusUploaded,
	}
	require.Error(t, db.Create(&duplicate).Error)

	var count int64
	require.NoError(t, db.Model(&models.ChapterVersion{}).
		Where("group_id = ? AND chapter_number = ?", 11, 3).
		Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestApplyReviewRecordsDecisionAndComment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChapterRepository(db)
	ctx := context.Background()

	group := models.Group{Name: "Group A", AdvisorID: 42}
	require.NoError(t, db.Create(&group).Error)

	chapter := models.ChapterVersion{GroupID: group.ID, ChapterNumber: 1, FilePath: "v1.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &chapter))

	score := 88.5
	reviewed, err := repo.ApplyReview(ctx, chapter.ID, 42, ReviewUpdate{
		Status:       models.ChapterStatusApproved,
		Score:        &score,
		Feedback:     "well structured",
		ReviewerID:   42,
		ReviewerType: models.CommenterTypeAdvisor,
		ReviewedAt:   time.Now(),
		Comment: &models.Comment{
			AuthorID:   42,
			AuthorType: models.CommenterTypeAdvisor,
			Text:       "well structured",
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.ChapterStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewScore)
	require.Equal(t, 88.5, *reviewed.ReviewScore)
	require.NotNil(t, reviewed.ReviewerID)
	require.Equal(t, uint(42), *reviewed.ReviewerID)
	require.NotNil(t, reviewed.LastReviewedAt)

	var comments []models.Comment
	require.NoError(t, db.Where("chapter_version_id = ?", chapter.ID).Find(&comments).Error)
	require.Len(t, comments, 1)
	require.Equal(t, "well structured", comments[0].Text)
}

func TestApplyReviewRejectsForeignAdvisor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChapterRepository(db)
	ctx := context.Background()

	group := models.Group{Name: "Group B", AdvisorID: 42}
	require.NoError(t, db.Create(&group).Error)

	chapter := models.ChapterVersion{GroupID: group.ID, ChapterNumber: 1, FilePath: "v1.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &chapter))

	_, err := repo.ApplyReview(ctx, chapter.ID, 99, ReviewUpdate{
		Status:     models.ChapterStatusApproved,
		ReviewerID: 99,
		ReviewedAt: time.Now(),
	})
	require.ErrorIs(t, err, ErrOwnershipMismatch)

	// Decision must not have been written.
	unchanged, err := repo.GetByID(ctx, chapter.ID)
	require.NoError(t, err)
	require.Equal(t, models.ChapterStatusUploaded, unchanged.Status)
}

func TestListPendingForAdvisorFiltersByStatusAndOwnership(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChapterRepository(db)
	ctx := context.Background()

	mine := models.Group{Name: "Mine", AdvisorID: 7}
	other := models.Group{Name: "Other", AdvisorID: 8}
	require.NoError(t, db.Create(&mine).Error)
	require.NoError(t, db.Create(&other).Error)

	pending := models.ChapterVersion{GroupID: mine.ID, ChapterNumber: 1, FilePath: "p.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &pending))

	approved := models.ChapterVersion{GroupID: mine.ID, ChapterNumber: 2, FilePath: "a.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &approved))
	approved.Status = models.ChapterStatusApproved
	require.NoError(t, repo.Update(ctx, &approved))

	foreign := models.ChapterVersion{GroupID: other.ID, ChapterNumber: 1, FilePath: "f.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &foreign))

	queue, err := repo.ListPendingForAdvisor(ctx, 7)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	require.Equal(t, pending.ID, queue[0].ID)
}

func TestListPendingForAdvisorIncludesLegacyPendingStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChapterRepository(db)
	ctx := context.Background()

	group := models.Group{Name: "Legacy", AdvisorID: 9}
	require.NoError(t, db.Create(&group).Error)

	legacy := models.ChapterVersion{GroupID: group.ID, ChapterNumber: 1, FilePath: "l.pdf"}
	require.NoError(t, repo.InsertVersion(ctx, &legacy))
	legacy.Status = models.ChapterStatusPending
	require.NoError(t, repo.Update(ctx, &legacy))

	queue, err := repo.ListPendingForAdvisor(ctx, 9)
	require.NoError(t, err)
	require.Len(t, queue, 1)
}

func TestDeleteMissingChapterReturnsNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChapterRepository(db)

	err := repo.Delete(context.Background(), 12345)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", sanitizeDSN(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ChapterVersion{},
		&models.Group{},
		&models.GroupMember{},
		&models.Comment{},
		&models.Notification{},
		&models.AuditLog{},
	))
	return db
}

func sanitizeDSN(name string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(name)
}
