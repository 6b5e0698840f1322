package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/LivSterling/skill-issued-server/cache"
	"github.com/LivSterling/skill-issued-server/config"
	mw "github.com/LivSterling/skill-issued-server/middleware"
	"github.com/LivSterling/skill-issued-server/model"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	db     *gorm.DB
	sc     *cache.Social
	sec    config.SecurityConfig
	social config.SocialConfig
}

// NewAuthHandler creates a new AuthHandler. sc may be nil in tests that do
// not exercise cache warming.
func NewAuthHandler(db *gorm.DB, sc *cache.Social, sec config.SecurityConfig, socialCfg config.SocialConfig) *AuthHandler {
	return &AuthHandler{db: db, sc: sc, sec: sec, social: socialCfg}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// Register handles POST /api/auth/register. The account and its profile are
// created in one transaction so a profile always exists for a login.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !model.ValidUsername(req.Username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-20 letters, digits or underscores"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	acc := model.Account{
		Username:     req.Username,
		PasswordHash: string(hash),
		Email:        req.Email,
		Status:       1,
	}
	var profile model.Profile
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&acc).Error; err != nil {
			return err
		}
		profile = model.Profile{
			AccountID:    acc.ID,
			Username:     req.Username,
			DisplayName:  req.Username,
			PrivacyLevel: model.PrivacyPublic,
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	token, err := mw.GenerateToken(acc.ID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"account_id": acc.ID,
		"profile_id": profile.ID,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login. On success the user's social data is
// warmed in the background when configured.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var acc model.Account
	if err := h.db.Where("username = ?", req.Username).First(&acc).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if acc.Status == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
		return
	}

	now := time.Now()
	h.db.Model(&acc).Updates(map[string]interface{}{
		"last_login_at": &now,
		"last_login_ip": c.ClientIP(),
	})

	token, err := mw.GenerateToken(acc.ID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var profile model.Profile
	if err := h.db.Where("account_id = ?", acc.ID).First(&profile).Error; err == nil {
		if h.sc != nil && h.social.WarmOnLogin {
			go func(id int64) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				h.sc.Warm(ctx, id)
			}(profile.ID)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"account_id": acc.ID,
		"profile_id": profile.ID,
	})
}
