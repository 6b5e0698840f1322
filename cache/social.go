package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/LivSterling/skill-issued-server/config"
	"github.com/LivSterling/skill-issued-server/model"
	"github.com/LivSterling/skill-issued-server/social"
	"go.uber.org/zap"
)

// Entity kinds for cache keys.
const (
	KindProfile      = "profile"
	KindRelationship = "relationship"
	KindFriends      = "friends"
)

// UserTag is the invalidation tag covering all of a user's cached data.
func UserTag(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// Social is the read-through layer between callers and the relationship
// service. Profile reads use a longer TTL than relationship state, which
// churns far more often than a profile edit. It implements
// social.Invalidator so every service mutation drops both participants'
// entries.
type Social struct {
	cache  *Cache
	svc    *social.Service
	logger *zap.Logger

	profileTTL time.Duration
	relTTL     time.Duration
	pageSize   int
}

// NewSocial wires a Social cache over the core cache and service, and
// registers itself as the service's invalidator.
func NewSocial(c *Cache, svc *social.Service, cfg config.CacheConfig, socialCfg config.SocialConfig, logger *zap.Logger) *Social {
	sc := &Social{
		cache:      c,
		svc:        svc,
		logger:     logger,
		profileTTL: cfg.ProfileTTL,
		relTTL:     cfg.RelationshipTTL,
		pageSize:   socialCfg.DefaultPageSize,
	}
	if sc.profileTTL <= 0 {
		sc.profileTTL = 5 * time.Minute
	}
	if sc.relTTL <= 0 {
		sc.relTTL = 30 * time.Second
	}
	if sc.pageSize <= 0 {
		sc.pageSize = 20
	}
	svc.SetInvalidator(sc)
	return sc
}

// InvalidateUser implements social.Invalidator.
func (sc *Social) InvalidateUser(userID int64) {
	sc.cache.InvalidateTag(UserTag(userID))
}

// Profile returns a profile through the cache.
func (sc *Social) Profile(ctx context.Context, id int64) (*model.Profile, error) {
	key := Key(KindProfile, strconv.FormatInt(id, 10))
	v, err := sc.cache.GetOrLoad(ctx, key, sc.profileTTL, []string{UserTag(id)},
		func(ctx context.Context) (interface{}, error) {
			return sc.svc.Store().GetProfile(ctx, id)
		})
	if err != nil {
		return nil, err
	}
	return v.(*model.Profile), nil
}

// SetProfile seeds the cache with a freshly written profile (write-through).
func (sc *Social) SetProfile(p *model.Profile) {
	key := Key(KindProfile, strconv.FormatInt(p.ID, 10))
	sc.cache.Set(key, p, sc.profileTTL, UserTag(p.ID))
}

// Relationship returns the viewer→subject relationship state through the
// cache. Entries are tagged with both participants so a mutation by either
// side invalidates the pair.
func (sc *Social) Relationship(ctx context.Context, viewerID, subjectID int64) (social.RelationshipState, error) {
	key := Key(KindRelationship,
		strconv.FormatInt(viewerID, 10)+":"+strconv.FormatInt(subjectID, 10))
	v, err := sc.cache.GetOrLoad(ctx, key, sc.relTTL,
		[]string{UserTag(viewerID), UserTag(subjectID)},
		func(ctx context.Context) (interface{}, error) {
			return sc.svc.Relationship(ctx, viewerID, subjectID)
		})
	if err != nil {
		return social.RelationshipState{}, err
	}
	return v.(social.RelationshipState), nil
}

// Friends returns the first page of the user's friends list through the
// cache; deeper pages go straight to the service.
func (sc *Social) Friends(ctx context.Context, userID int64, page social.Page) ([]social.Friend, error) {
	if page.Offset != 0 {
		return sc.svc.Friends(ctx, userID, page)
	}
	key := Key(KindFriends, strconv.FormatInt(userID, 10))
	v, err := sc.cache.GetOrLoad(ctx, key, sc.relTTL, []string{UserTag(userID)},
		func(ctx context.Context) (interface{}, error) {
			return sc.svc.Friends(ctx, userID, page)
		})
	if err != nil {
		return nil, err
	}
	return v.([]social.Friend), nil
}

// Warm proactively populates the user's profile and immediate relationship
// edges, e.g. after login. Best-effort: failures are logged and swallowed,
// never surfaced to the caller.
func (sc *Social) Warm(ctx context.Context, userID int64) {
	if _, err := sc.Profile(ctx, userID); err != nil {
		sc.logger.Debug("warm: profile load failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
	page := social.Page{Limit: sc.pageSize}
	if _, err := sc.Friends(ctx, userID, page); err != nil {
		sc.logger.Debug("warm: friends load failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Metrics exposes the core cache counters.
func (sc *Social) Metrics() MetricsSnapshot {
	return sc.cache.Metrics()
}

// Events exposes the core cache debug ring buffer.
func (sc *Social) Events() []Event {
	return sc.cache.Events()
}
