package model

import (
	"time"

	"gorm.io/datatypes"
)

// SocialAuditLog records one relationship mutation for offline review.
type SocialAuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"size:64;index" json:"trace_id"`
	ActorID    *int64         `gorm:"index" json:"actor_id"`
	TargetID   *int64         `gorm:"index" json:"target_id"`
	Action     string         `gorm:"size:32;index" json:"action"`
	Request    datatypes.JSON `json:"request"`
	Response   datatypes.JSON `json:"response"`
	Error      string         `gorm:"size:256" json:"error"`
	IP         string         `gorm:"size:45" json:"ip"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}
