package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thesistrack/thesistrack-api/internal/models"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
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

func seedGroup(t *testing.T, db *gorm.DB, advisorID uint, memberIDs ...uint) models.Group {
	t.Helper()
	group := models.Group{Name: "Group " + t.Name(), AdvisorID: advisorID}
	require.NoError(t, db.Create(&group).Error)
	for _, memberID := range memberIDs {
		member := models.GroupMember{GroupID: group.ID, StudentID: memberID}
		require.NoError(t, db.Create(&member).Error)
	}
	return group
}

func floatPointer(v float64) *float64 {
	return &v
}
