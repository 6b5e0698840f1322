package model

import "time"

// FriendStatus is the lifecycle state of a FriendEdge.
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
	FriendDeclined FriendStatus = "declined"
	FriendBlocked  FriendStatus = "blocked"
)

// FriendEdge is a friend request or accepted friendship between two profiles.
// At most one edge exists per unordered pair: PairLo/PairHi hold the pair in
// normalized order and carry a unique index, so a pending request A→B bars a
// new request B→A at the database level.
type FriendEdge struct {
	ID          int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	RequesterID int64        `gorm:"index;not null" json:"requester_id"`
	RecipientID int64        `gorm:"index;not null" json:"recipient_id"`
	PairLo      int64        `gorm:"uniqueIndex:idx_friend_pair;not null" json:"-"`
	PairHi      int64        `gorm:"uniqueIndex:idx_friend_pair;not null" json:"-"`
	Status      FriendStatus `gorm:"size:16;default:'pending'" json:"status"`
	Message     string       `gorm:"size:256" json:"message,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// NormalizePair fills PairLo/PairHi from the requester and recipient ids.
func (e *FriendEdge) NormalizePair() {
	e.PairLo, e.PairHi = NormalizedPair(e.RequesterID, e.RecipientID)
}

// NormalizedPair returns the two ids in ascending order.
func NormalizedPair(a, b int64) (lo, hi int64) {
	if a < b {
		return a, b
	}
	return b, a
}
