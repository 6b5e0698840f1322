package model

import (
	"regexp"

	"gorm.io/datatypes"
	"time"
)

// PrivacyLevel controls who may see a privacy-scoped profile field.
type PrivacyLevel string

const (
	PrivacyPublic  PrivacyLevel = "public"
	PrivacyFriends PrivacyLevel = "friends"
	PrivacyPrivate PrivacyLevel = "private"
)

// Valid reports whether l is one of the three known levels.
func (l PrivacyLevel) Valid() bool {
	switch l {
	case PrivacyPublic, PrivacyFriends, PrivacyPrivate:
		return true
	}
	return false
}

// usernamePattern: 3-20 chars, letters, digits and underscore.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// ValidUsername reports whether name satisfies the profile username rules.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// Profile is a user's public-facing identity. Owned by the account it
// belongs to; mutated only by its owner or on account creation.
type Profile struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID    int64          `gorm:"uniqueIndex;not null" json:"account_id"`
	Username     string         `gorm:"uniqueIndex;size:20;not null" json:"username"`
	DisplayName  string         `gorm:"size:64" json:"display_name"`
	Bio          string         `gorm:"size:512" json:"bio"`
	PrivacyLevel PrivacyLevel   `gorm:"size:16;default:'public'" json:"privacy_level"`
	Preferences  datatypes.JSON `json:"preferences"` // structured gaming preferences
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
