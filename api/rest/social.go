package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/LivSterling/skill-issued-server/cache"
	"github.com/LivSterling/skill-issued-server/config"
	mw "github.com/LivSterling/skill-issued-server/middleware"
	"github.com/LivSterling/skill-issued-server/social"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SocialHandler exposes the relationship service operations over REST.
type SocialHandler struct {
	db  *gorm.DB
	svc *social.Service
	sc  *cache.Social
	cfg config.SocialConfig
}

// NewSocialHandler creates a new SocialHandler.
func NewSocialHandler(db *gorm.DB, svc *social.Service, sc *cache.Social, cfg config.SocialConfig) *SocialHandler {
	return &SocialHandler{db: db, svc: svc, sc: sc, cfg: cfg}
}

// actor resolves the caller's profile id, aborting with 400 when the
// account has no profile.
func (h *SocialHandler) actor(c *gin.Context) (int64, bool) {
	id := getProfileID(h.db, mw.GetAccountID(c))
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no profile"})
		return 0, false
	}
	return id, true
}

func targetParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *SocialHandler) page(c *gin.Context) social.Page {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return social.Page{Limit: limit, Offset: offset}.
		Normalize(h.cfg.DefaultPageSize, h.cfg.MaxPageSize)
}

// ---- friend request lifecycle ----

type sendRequestBody struct {
	TargetID int64  `json:"target_id" binding:"required"`
	Message  string `json:"message" binding:"max=256"`
}

// SendRequest handles POST /api/social/friends/request.
func (h *SocialHandler) SendRequest(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var body sendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	edge, err := h.svc.SendRequest(c.Request.Context(), actorID, body.TargetID, body.Message)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": edge})
}

// Accept handles POST /api/social/friends/accept/:id (id = requester profile).
func (h *SocialHandler) Accept(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	otherID, ok := targetParam(c)
	if !ok {
		return
	}
	edge, err := h.svc.AcceptRequest(c.Request.Context(), actorID, otherID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friendship": edge})
}

// Decline handles POST /api/social/friends/decline/:id.
func (h *SocialHandler) Decline(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	otherID, ok := targetParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeclineRequest(c.Request.Context(), actorID, otherID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "declined"})
}

// Cancel handles DELETE /api/social/friends/request/:id.
func (h *SocialHandler) Cancel(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	otherID, ok := targetParam(c)
	if !ok {
		return
	}
	if err := h.svc.CancelRequest(c.Request.Context(), actorID, otherID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
}

// Unfriend handles DELETE /api/social/friends/:id.
func (h *SocialHandler) Unfriend(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	otherID, ok := targetParam(c)
	if !ok {
		return
	}
	if err := h.svc.Unfriend(c.Request.Context(), actorID, otherID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfriended"})
}

// ---- follows ----

// Follow handles POST /api/social/follow/:id.
func (h *SocialHandler) Follow(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	otherID, ok := targetParam(c)
	if !ok {
		return
	}
	edge, err := h.svc.Follow(c.Request.Context(), actorID, otherID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"follow": edge})
}

// Unfollow handles DELETE /api/social/follow/:id.
func (h *SocialHandler) Unfollow(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	otherID, ok := targetParam(c)
	if !ok {
		return
	}
	if err := h.svc.Unfollow(c.Request.Context(), actorID, otherID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

// ---- blocks ----

type blockBody struct {
	Reason    string     `json:"reason" binding:"max=256"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Block handles POST /api/social/block/:id.
func (h *SocialHandler) Block(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	otherID, ok := targetParam(c)
	if !ok {
		return
	}
	var body blockBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	edge, err := h.svc.Block(c.Request.Context(), actorID, otherID, body.Reason, body.ExpiresAt)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"block": edge})
}

// Unblock handles DELETE /api/social/block/:id.
func (h *SocialHandler) Unblock(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	otherID, ok := targetParam(c)
	if !ok {
		return
	}
	if err := h.svc.Unblock(c.Request.Context(), actorID, otherID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unblocked"})
}

// ---- queries ----

// Status handles GET /api/social/status/:id.
func (h *SocialHandler) Status(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	otherID, ok := targetParam(c)
	if !ok {
		return
	}
	state, err := h.sc.Relationship(c.Request.Context(), actorID, otherID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationship": state})
}

// Friends handles GET /api/social/friends.
func (h *SocialHandler) Friends(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	friends, err := h.sc.Friends(c.Request.Context(), actorID, h.page(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// IncomingRequests handles GET /api/social/friends/requests/incoming.
func (h *SocialHandler) IncomingRequests(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	reqs, err := h.svc.IncomingRequests(c.Request.Context(), actorID, h.page(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// OutgoingRequests handles GET /api/social/friends/requests/outgoing.
func (h *SocialHandler) OutgoingRequests(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	reqs, err := h.svc.OutgoingRequests(c.Request.Context(), actorID, h.page(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// Followers handles GET /api/social/followers.
func (h *SocialHandler) Followers(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	profiles, err := h.svc.Followers(c.Request.Context(), actorID, h.page(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": profiles})
}

// Following handles GET /api/social/following.
func (h *SocialHandler) Following(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	profiles, err := h.svc.Following(c.Request.Context(), actorID, h.page(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": profiles})
}

// Blocked handles GET /api/social/blocked.
func (h *SocialHandler) Blocked(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	edges, err := h.svc.Blocked(c.Request.Context(), actorID, h.page(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": edges})
}

// CacheMetrics handles GET /api/social/cache/metrics.
func (h *SocialHandler) CacheMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics": h.sc.Metrics(),
		"events":  h.sc.Events(),
	})
}
