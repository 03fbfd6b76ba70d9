package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/thesistrack/thesistrack-api/internal/models"
)

// GroupRepository handles persistence for thesis groups and their members.
type GroupRepository interface {
	GetByID(ctx context.Context, id uint) (models.Group, error)
	ListByAdvisor(ctx context.Context, advisorID uint) ([]models.Group, error)
	MemberIDs(ctx context.Context, groupID uint) ([]uint, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository constructs a repository backed by GORM.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Preload("Members").First(&group, id).Error; err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func (r *groupRepository) ListByAdvisor(ctx context.Context, advisorID uint) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).
		Where("advisor_id = ?", advisorID).
		Order("name ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) MemberIDs(ctx context.Context, groupID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
