package model

import "time"

// BlockEdge is a directed block. A nil ExpiresAt means permanent. Creating
// one removes any friend edge and both follow directions between the pair;
// that side effect is enforced by the relationship service, not here.
type BlockEdge struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	BlockerID int64      `gorm:"uniqueIndex:idx_block_pair;index;not null" json:"blocker_id"`
	BlockedID int64      `gorm:"uniqueIndex:idx_block_pair;index;not null" json:"blocked_id"`
	Reason    string     `gorm:"size:256" json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// Active reports whether the block is still in force at the given time.
func (b *BlockEdge) Active(now time.Time) bool {
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}
