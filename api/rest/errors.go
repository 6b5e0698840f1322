package rest

import (
	"errors"
	"net/http"

	"github.com/LivSterling/skill-issued-server/social"
	"github.com/gin-gonic/gin"
)

// statusFor maps service error kinds to HTTP statuses. The distinct conflict
// subtypes share 409 but keep their own messages for the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, social.ErrInvalidTarget):
		return http.StatusBadRequest
	case errors.Is(err, social.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, social.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, social.ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, social.ErrAlreadyFriends),
		errors.Is(err, social.ErrRequestPending),
		errors.Is(err, social.ErrPreviouslyDeclined),
		errors.Is(err, social.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// message returns the client-facing text for a service error.
func message(err error) string {
	switch {
	case errors.Is(err, social.ErrInvalidTarget):
		return "cannot target yourself"
	case errors.Is(err, social.ErrNotFound):
		return "not found"
	case errors.Is(err, social.ErrForbidden):
		return "not allowed"
	case errors.Is(err, social.ErrBlocked):
		return "action blocked"
	case errors.Is(err, social.ErrAlreadyFriends):
		return "already friends"
	case errors.Is(err, social.ErrRequestPending):
		return "request already pending"
	case errors.Is(err, social.ErrPreviouslyDeclined):
		return "request previously declined"
	case errors.Is(err, social.ErrConflict):
		return "conflict"
	default:
		return "internal error"
	}
}

// abortWith writes the mapped status and message for a service error.
func abortWith(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": message(err)})
}
