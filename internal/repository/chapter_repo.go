package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thesistrack/thesistrack-api/internal/models"
)

// ErrOwnershipMismatch indicates the acting advisor does not supervise the
// chapter's group. Returned from inside the review transaction so the check
// and the write cannot be split by a concurrent upload.
var ErrOwnershipMismatch = errors.New("chapter group is not advised by reviewer")

// ReviewUpdate describes the fields recorded atomically with a review decision.
type ReviewUpdate struct {
	Status       models.ChapterStatus
	Score        *float64
	Feedback     string
	ReviewerID   uint
	ReviewerType string
	ReviewedAt   time.Time
	// Comment, when set, is created in the same transaction.
	Comment *models.Comment
}

// ChapterRepository defines data operations for chapter versions.
type ChapterRepository interface {
	GetByID(ctx context.Context, id uint) (models.ChapterVersion, error)
	GetByKey(ctx context.Context, groupID uint, chapterNumber, version int) (models.ChapterVersion, error)
	CurrentVersion(ctx context.Context, groupID uint, chapterNumber int) (models.ChapterVersion, error)
	InsertVersion(ctx context.Context, version *models.ChapterVersion) error
	Update(ctx context.Context, version *models.ChapterVersion) error
	ApplyReview(ctx context.Context, chapterID, advisorID uint, update ReviewUpdate) (models.ChapterVersion, error)
	Delete(ctx context.Context, id uint) error
	ListVersions(ctx context.Context, groupID uint, chapterNumber int) ([]models.ChapterVersion, error)
	ListCurrentByGroup(ctx context.Context, groupID uint) ([]models.ChapterVersion, error)
	ListPendingForAdvisor(ctx context.Context, advisorID uint) ([]models.ChapterVersion, error)
}

type chapterRepository struct {
	db *gorm.DB
}

// NewChapterRepository instantiates the repository.
func NewChapterRepository(db *gorm.DB) ChapterRepository {
	return &chapterRepository{db: db}
}

func (r *chapterRepository) GetByID(ctx context.Context, id uint) (models.ChapterVersion, error) {
	var chapter models.ChapterVersion
	if err := r.db.WithContext(ctx).First(&chapter, id).Error; err != nil {
		return models.ChapterVersion{}, err
	}
	return chapter, nil
}

func (r *chapterRepository) GetByKey(ctx context.Context, groupID uint, chapterNumber, version int) (models.ChapterVersion, error) {
	var chapter models.ChapterVersion
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND chapter_number = ? AND version = ?", groupID, chapterNumber, version).
		First(&chapter).Error; err != nil {
		return models.ChapterVersion{}, err
	}
	return chapter, nil
}

func (r *chapterRepository) CurrentVersion(ctx context.Context, groupID uint, chapterNumber int) (models.ChapterVersion, error) {
	var chapter models.ChapterVersion
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND chapter_number = ? AND is_current = ?", groupID, chapterNumber, true).
		First(&chapter).Error; err != nil {
		return models.ChapterVersion{}, err
	}
	return chapter, nil
}

// lockForUpdate adds a FOR UPDATE row lock on dialects that support it.
// sqlite has no row-level locks and rejects the syntax; its single-writer
// model already serializes the transactions this lock protects.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// InsertVersion assigns the next version number, creates the new current row
// and demotes the prior one inside a single transaction, so at every commit
// point exactly one row per (group, chapter) is current. The newest row for
// the slot is read under a row lock so two concurrent uploads cannot both
// observe the same latest version; the unique index on
// (group_id, chapter_number, version) backstops the first-upload case where
// there is no row to lock yet.
func (r *chapterRepository) InsertVersion(ctx context.Context, version *models.ChapterVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		maxVersion := 0
		var latest models.ChapterVersion
		if err := lockForUpdate(tx).
			Where("group_id = ? AND chapter_number = ?", version.GroupID, version.ChapterNumber).
			Order("version DESC").
			First(&latest).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		} else {
			maxVersion = latest.Version
		}

		var previous models.ChapterVersion
		hasPrevious := true
		if err := lockForUpdate(tx).
			Where("group_id = ? AND chapter_number = ? AND is_current = ?", version.GroupID, version.ChapterNumber, true).
			First(&previous).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hasPrevious = false
		}

		version.Version = maxVersion + 1
		version.IsCurrent = true
		if version.Status == "" {
			version.Status = models.ChapterStatusUploaded
		}
		if version.UploadedAt.IsZero() {
			version.UploadedAt = time.Now()
		}

		if err := tx.Create(version).Error; err != nil {
			return err
		}

		if hasPrevious {
			if err := tx.Model(&models.ChapterVersion{}).
				Where("id = ?", previous.ID).
				Updates(map[string]interface{}{"is_current": false, "replaced_by_id": version.ID}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *chapterRepository) Update(ctx context.Context, version *models.ChapterVersion) error {
	return r.db.WithContext(ctx).Save(version).Error
}

// ApplyReview re-verifies ownership and records the decision, feedback and
// optional comment in one transaction.
func (r *chapterRepository) ApplyReview(ctx context.Context, chapterID, advisorID uint, update ReviewUpdate) (models.ChapterVersion, error) {
	var chapter models.ChapterVersion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&chapter, chapterID).Error; err != nil {
			return err
		}

		var group models.Group
		if err := tx.First(&group, chapter.GroupID).Error; err != nil {
			return err
		}
		if !group.AdvisedBy(advisorID) {
			return ErrOwnershipMismatch
		}

		reviewer := update.ReviewerID
		reviewedAt := update.ReviewedAt

		chapter.Status = update.Status
		chapter.ReviewScore = update.Score
		chapter.ReviewFeedback = update.Feedback
		chapter.ReviewerID = &reviewer
		chapter.ReviewerType = update.ReviewerType
		chapter.LastReviewedAt = &reviewedAt

		if err := tx.Save(&chapter).Error; err != nil {
			return err
		}

		if update.Comment != nil {
			update.Comment.ChapterVersionID = chapter.ID
			if err := tx.Create(update.Comment).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return models.ChapterVersion{}, err
	}

	return chapter, nil
}

func (r *chapterRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ChapterVersion{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *chapterRepository) ListVersions(ctx context.Context, groupID uint, chapterNumber int) ([]models.ChapterVersion, error) {
	var versions []models.ChapterVersion
	query := r.db.WithContext(ctx).Where("group_id = ?", groupID)
	if chapterNumber > 0 {
		query = query.Where("chapter_number = ?", chapterNumber)
	}
	if err := query.Order("chapter_number ASC, version DESC").Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *chapterRepository) ListCurrentByGroup(ctx context.Context, groupID uint) ([]models.ChapterVersion, error) {
	var versions []models.ChapterVersion
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND is_current = ?", groupID, true).
		Order("chapter_number ASC").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *chapterRepository) ListPendingForAdvisor(ctx context.Context, advisorID uint) ([]models.ChapterVersion, error) {
	var versions []models.ChapterVersion
	if err := r.db.WithContext(ctx).
		Joins("JOIN groups ON groups.id = chapter_versions.group_id").
		Where("groups.advisor_id = ?", advisorID).
		Where("chapter_versions.is_current = ?", true).
		Where("chapter_versions.status IN ?", models.PendingReviewStatuses()).
		Order("chapter_versions.uploaded_at ASC").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}
