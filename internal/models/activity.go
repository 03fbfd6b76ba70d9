package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog captures auditable events triggered by students and advisors.
type AuditLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	ActorID   uint              `gorm:"not null" json:"actor_id"`
	ActorName string            `gorm:"size:255" json:"actor_name"`
	ActorRole string            `gorm:"size:32;not null" json:"actor_role"`
	Action    string            `gorm:"size:64;not null" json:"action"`
	Category  string            `gorm:"size:64;not null" json:"category"`
	Details   datatypes.JSONMap `gorm:"type:json" json:"details"`
	Severity  string            `gorm:"size:16;default:info" json:"severity"`
	SourceIP  string            `gorm:"size:64" json:"source_ip"`
	CreatedAt time.Time         `json:"created_at"`
}
