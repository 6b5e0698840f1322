package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LivSterling/skill-issued-server/model"
	"gorm.io/gorm"
)

// Page is a limit/offset window over a listing query.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to sane bounds, applying def when unset.
func (p Page) Normalize(def, max int) Page {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Store is the durable record of friend, follow and block edges. It owns
// row-level uniqueness and referential errors only; cross-relation invariants
// (e.g. block removing follows) belong to the Service.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store over the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction runs fn against a Store bound to a database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// wrapErr maps driver errors onto the service error taxonomy.
func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// ---- friend edges ----

// CreateFriendRequest inserts a pending edge. The normalized-pair unique
// index rejects a second edge for the pair regardless of direction.
func (s *Store) CreateFriendRequest(ctx context.Context, edge *model.FriendEdge) error {
	edge.Status = model.FriendPending
	edge.NormalizePair()
	return wrapErr(s.db.WithContext(ctx).Create(edge).Error)
}

// GetFriendEdge returns the single edge between the unordered pair (a, b).
func (s *Store) GetFriendEdge(ctx context.Context, a, b int64) (*model.FriendEdge, error) {
	lo, hi := model.NormalizedPair(a, b)
	var edge model.FriendEdge
	err := s.db.WithContext(ctx).
		Where("pair_lo = ? AND pair_hi = ?", lo, hi).
		First(&edge).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &edge, nil
}

// UpdateFriendStatus transitions an edge to the given status. The returned
// edge carries the transition time in UpdatedAt.
func (s *Store) UpdateFriendStatus(ctx context.Context, edgeID int64, status model.FriendStatus) (*model.FriendEdge, error) {
	var edge model.FriendEdge
	if err := s.db.WithContext(ctx).First(&edge, edgeID).Error; err != nil {
		return nil, wrapErr(err)
	}
	edge.Status = status
	if err := s.db.WithContext(ctx).Save(&edge).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &edge, nil
}

// DeleteFriendEdge removes an edge by id.
func (s *Store) DeleteFriendEdge(ctx context.Context, edgeID int64) error {
	res := s.db.WithContext(ctx).Delete(&model.FriendEdge{}, edgeID)
	if res.Error != nil {
		return wrapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFriendEdgeBetween removes the edge for the unordered pair, if any.
func (s *Store) DeleteFriendEdgeBetween(ctx context.Context, a, b int64) error {
	lo, hi := model.NormalizedPair(a, b)
	return wrapErr(s.db.WithContext(ctx).
		Where("pair_lo = ? AND pair_hi = ?", lo, hi).
		Delete(&model.FriendEdge{}).Error)
}

// ListFriendEdges returns accepted edges touching userID, newest acceptance first.
func (s *Store) ListFriendEdges(ctx context.Context, userID int64, page Page) ([]model.FriendEdge, error) {
	var edges []model.FriendEdge
	err := s.db.WithContext(ctx).
		Where("status = ? AND (requester_id = ? OR recipient_id = ?)",
			model.FriendAccepted, userID, userID).
		Order("updated_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&edges).Error
	return edges, wrapErr(err)
}

// ListIncomingRequests returns pending edges addressed to userID, newest first.
func (s *Store) ListIncomingRequests(ctx context.Context, userID int64, page Page) ([]model.FriendEdge, error) {
	var edges []model.FriendEdge
	err := s.db.WithContext(ctx).
		Where("status = ? AND recipient_id = ?", model.FriendPending, userID).
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&edges).Error
	return edges, wrapErr(err)
}

// ListOutgoingRequests returns pending edges sent by userID, newest first.
func (s *Store) ListOutgoingRequests(ctx context.Context, userID int64, page Page) ([]model.FriendEdge, error) {
	var edges []model.FriendEdge
	err := s.db.WithContext(ctx).
		Where("status = ? AND requester_id = ?", model.FriendPending, userID).
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&edges).Error
	return edges, wrapErr(err)
}

// ---- follow edges ----

// CreateFollow inserts a directed follow edge.
func (s *Store) CreateFollow(ctx context.Context, edge *model.FollowEdge) error {
	return wrapErr(s.db.WithContext(ctx).Create(edge).Error)
}

// DeleteFollow removes the follower→followee edge.
func (s *Store) DeleteFollow(ctx context.Context, followerID, followeeID int64) error {
	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&model.FollowEdge{})
	if res.Error != nil {
		return wrapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFollowsBetween removes both directions of follow between a and b.
func (s *Store) DeleteFollowsBetween(ctx context.Context, a, b int64) error {
	return wrapErr(s.db.WithContext(ctx).
		Where("(follower_id = ? AND followee_id = ?) OR (follower_id = ? AND followee_id = ?)",
			a, b, b, a).
		Delete(&model.FollowEdge{}).Error)
}

// IsFollowing reports whether follower→followee exists.
func (s *Store) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.FollowEdge{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&n).Error
	return n > 0, wrapErr(err)
}

// ListFollowers returns follow edges pointing at userID, newest first.
func (s *Store) ListFollowers(ctx context.Context, userID int64, page Page) ([]model.FollowEdge, error) {
	var edges []model.FollowEdge
	err := s.db.WithContext(ctx).
		Where("followee_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&edges).Error
	return edges, wrapErr(err)
}

// ListFollowing returns follow edges originating at userID, newest first.
func (s *Store) ListFollowing(ctx context.Context, userID int64, page Page) ([]model.FollowEdge, error) {
	var edges []model.FollowEdge
	err := s.db.WithContext(ctx).
		Where("follower_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&edges).Error
	return edges, wrapErr(err)
}

// ---- block edges ----

// CreateBlock inserts a directed block edge.
func (s *Store) CreateBlock(ctx context.Context, edge *model.BlockEdge) error {
	return wrapErr(s.db.WithContext(ctx).Create(edge).Error)
}

// DeleteBlock removes the blocker→blocked edge.
func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID int64) error {
	res := s.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&model.BlockEdge{})
	if res.Error != nil {
		return wrapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasActiveBlock reports whether an unexpired block exists in either
// direction between a and b.
func (s *Store) HasActiveBlock(ctx context.Context, a, b int64) (bool, error) {
	var n int64
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&model.BlockEdge{}).
		Where("((blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?))", a, b, b, a).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&n).Error
	return n > 0, wrapErr(err)
}

// GetActiveBlock returns the unexpired blocker→blocked edge.
func (s *Store) GetActiveBlock(ctx context.Context, blockerID, blockedID int64) (*model.BlockEdge, error) {
	var edge model.BlockEdge
	err := s.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		First(&edge).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &edge, nil
}

// ListBlocked returns block edges created by userID, newest first. Expired
// blocks are included until the purge ticker removes them.
func (s *Store) ListBlocked(ctx context.Context, userID int64, page Page) ([]model.BlockEdge, error) {
	var edges []model.BlockEdge
	err := s.db.WithContext(ctx).
		Where("blocker_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&edges).Error
	return edges, wrapErr(err)
}

// PurgeExpiredBlocks deletes block edges whose expiry has passed. Run
// periodically by the scheduler.
func (s *Store) PurgeExpiredBlocks(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).
		Delete(&model.BlockEdge{})
	return res.RowsAffected, wrapErr(res.Error)
}
