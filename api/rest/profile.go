package rest

import (
	"net/http"
	"strconv"

	"github.com/LivSterling/skill-issued-server/cache"
	mw "github.com/LivSterling/skill-issued-server/middleware"
	"github.com/LivSterling/skill-issued-server/model"
	"github.com/LivSterling/skill-issued-server/social"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProfileHandler serves profile reads (through the cache, filtered by the
// visibility resolver) and owner-only updates.
type ProfileHandler struct {
	db  *gorm.DB
	svc *social.Service
	sc  *cache.Social
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(db *gorm.DB, svc *social.Service, sc *cache.Social) *ProfileHandler {
	return &ProfileHandler{db: db, svc: svc, sc: sc}
}

// profileView is the disclosure-filtered shape returned to viewers. Bio and
// preferences follow the subject's privacy level; username and display name
// are always public to anyone not blocked.
type profileView struct {
	ID          int64           `json:"id"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Bio         *string         `json:"bio,omitempty"`
	Preferences *datatypes.JSON `json:"preferences,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// viewOf applies the visibility decision per field. The relationship state
// is resolved once and reused for every field check.
func viewOf(p *model.Profile, state social.RelationshipState) profileView {
	v := profileView{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if social.CanView(state, p.PrivacyLevel) {
		v.Bio = &p.Bio
		v.Preferences = &p.Preferences
	}
	return v
}

// Get handles GET /api/profiles/:id.
func (h *ProfileHandler) Get(c *gin.Context) {
	viewerID := getProfileID(h.db, mw.GetAccountID(c))
	subjectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	profile, err := h.sc.Profile(c.Request.Context(), subjectID)
	if err != nil {
		abortWith(c, err)
		return
	}
	state, err := h.sc.Relationship(c.Request.Context(), viewerID, subjectID)
	if err != nil {
		abortWith(c, err)
		return
	}
	if state.Blocked {
		// A blocked pair sees each other as absent, not as forbidden.
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": viewOf(profile, state)})
}

type updateProfileRequest struct {
	DisplayName  *string         `json:"display_name"`
	Bio          *string         `json:"bio"`
	PrivacyLevel *string         `json:"privacy_level"`
	Preferences  *datatypes.JSON `json:"preferences"`
}

// Update handles PUT /api/profile. Only the owner reaches this path; the
// fresh row is written through to the cache and the user tag invalidated so
// other viewers never see the stale version past its TTL.
func (h *ProfileHandler) Update(c *gin.Context) {
	profileID := getProfileID(h.db, mw.GetAccountID(c))
	if profileID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no profile"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.svc.Store().GetProfile(c.Request.Context(), profileID)
	if err != nil {
		abortWith(c, err)
		return
	}
	if req.DisplayName != nil {
		profile.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.PrivacyLevel != nil {
		level := model.PrivacyLevel(*req.PrivacyLevel)
		if !level.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown privacy level"})
			return
		}
		profile.PrivacyLevel = level
	}
	if req.Preferences != nil {
		profile.Preferences = *req.Preferences
	}

	if err := h.svc.Store().SaveProfile(c.Request.Context(), profile); err != nil {
		abortWith(c, err)
		return
	}
	h.sc.InvalidateUser(profileID)
	h.sc.SetProfile(profile)
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// getProfileID returns the profile id owned by an account, or 0.
func getProfileID(db *gorm.DB, accountID int64) int64 {
	var p model.Profile
	if err := db.Where("account_id = ?", accountID).First(&p).Error; err != nil {
		return 0
	}
	return p.ID
}
