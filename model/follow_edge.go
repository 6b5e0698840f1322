package model

import "time"

// FollowEdge is a directed follow with no approval step. At most one edge
// exists per ordered pair.
type FollowEdge struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID int64     `gorm:"uniqueIndex:idx_follow_pair;index;not null" json:"follower_id"`
	FolloweeID int64     `gorm:"uniqueIndex:idx_follow_pair;index;not null" json:"followee_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
