package social

import "github.com/LivSterling/skill-issued-server/model"

// RelationshipState is the resolved relationship between a viewer and a
// subject, obtained once via Service.Relationship and reused across field
// checks for the same pair.
type RelationshipState struct {
	ViewerID  int64 `json:"viewer_id"`
	SubjectID int64 `json:"subject_id"`

	Self            bool `json:"self"`
	Blocked         bool `json:"blocked"` // active block in either direction
	Friends         bool `json:"friends"`
	Following       bool `json:"following"`        // viewer → subject
	FollowedBy      bool `json:"followed_by"`      // subject → viewer
	PendingIncoming bool `json:"pending_incoming"` // subject requested viewer
	PendingOutgoing bool `json:"pending_outgoing"` // viewer requested subject
}

// CanView decides whether a field at the given privacy level may be disclosed
// to the viewer. Pure function; the state carries everything it needs.
//
//	self    → always visible
//	blocked → never visible, regardless of level
//	public  → visible to anyone not blocked
//	friends → visible only to accepted friends
//	private → visible only to the subject
//
// Unknown levels fail closed.
func CanView(state RelationshipState, level model.PrivacyLevel) bool {
	if state.Self {
		return true
	}
	if state.Blocked {
		return false
	}
	switch level {
	case model.PrivacyPublic:
		return true
	case model.PrivacyFriends:
		return state.Friends
	case model.PrivacyPrivate:
		return false
	default:
		return false
	}
}
