package social

import "errors"

// Error kinds surfaced by the relationship service. Callers branch with
// errors.Is; the REST layer maps each kind to an HTTP status.
var (
	// ErrInvalidTarget is returned for self-targeting requests, follows and blocks.
	ErrInvalidTarget = errors.New("social: invalid target")

	// ErrNotFound is returned when a referenced profile or edge does not exist.
	ErrNotFound = errors.New("social: not found")

	// ErrConflict is returned when a uniqueness constraint is violated,
	// including the loser of a concurrent duplicate-edge race.
	ErrConflict = errors.New("social: conflict")

	// ErrAlreadyFriends is returned by SendRequest when an accepted edge exists.
	ErrAlreadyFriends = errors.New("social: already friends")

	// ErrRequestPending is returned by SendRequest when a pending edge exists
	// in either direction.
	ErrRequestPending = errors.New("social: request already pending")

	// ErrPreviouslyDeclined is returned by SendRequest when a declined edge
	// still exists. Under the delete-on-decline policy declined rows are
	// removed immediately, so this only fires on imported or legacy data.
	ErrPreviouslyDeclined = errors.New("social: request previously declined")

	// ErrBlocked is returned when an active block in either direction forbids
	// the requested action.
	ErrBlocked = errors.New("social: blocked")

	// ErrForbidden is returned when the actor lacks permission for the
	// transition, e.g. a non-recipient trying to accept.
	ErrForbidden = errors.New("social: forbidden")

	// ErrStoreUnavailable wraps transport-level store failures. The service
	// does not retry these.
	ErrStoreUnavailable = errors.New("social: store unavailable")
)
