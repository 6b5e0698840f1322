package social

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/LivSterling/skill-issued-server/audit"
	"github.com/LivSterling/skill-issued-server/model"
	"github.com/LivSterling/skill-issued-server/pubsub"
	"go.uber.org/zap"
)

// InvalidateChannel carries user ids whose cached social data went stale.
const InvalidateChannel = "social:invalidate"

// Invalidator drops cached entries tagged with a user id. The cache layer
// implements it; the service and cache are coupled only through this contract.
type Invalidator interface {
	InvalidateUser(userID int64)
}

// Friend is an accepted friendship joined with the other party's profile.
type Friend struct {
	Profile        model.Profile `json:"profile"`
	FriendshipDate time.Time     `json:"friendship_date"`
	Message        string        `json:"message,omitempty"`
}

// Service enforces the relationship state machine and cross-relation
// invariants on top of the Store. Every successful mutation invalidates the
// cached data of both participants and publishes an invalidation message for
// other processes.
type Service struct {
	store  *Store
	pub    pubsub.PubSub
	aud    *audit.Service
	inv    Invalidator
	logger *zap.Logger
}

// NewService creates a relationship Service. pub and aud may be nil in tests.
func NewService(store *Store, pub pubsub.PubSub, aud *audit.Service, logger *zap.Logger) *Service {
	return &Service{store: store, pub: pub, aud: aud, logger: logger}
}

// SetInvalidator wires the cache layer in after construction; the cache
// depends on the service for loads, so it cannot be a constructor argument.
func (svc *Service) SetInvalidator(inv Invalidator) {
	svc.inv = inv
}

// Store exposes the underlying store for read paths that bypass the state
// machine (cache loaders, profile reads).
func (svc *Service) Store() *Store {
	return svc.store
}

// invalidate drops both participants' cached entries and publishes the pair
// for remote bridges. Over-invalidation only costs a cache miss.
func (svc *Service) invalidate(ctx context.Context, ids ...int64) {
	for _, id := range ids {
		if svc.inv != nil {
			svc.inv.InvalidateUser(id)
		}
		if svc.pub != nil {
			if err := svc.pub.Publish(ctx, InvalidateChannel, strconv.FormatInt(id, 10)); err != nil {
				svc.logger.Warn("invalidation publish failed",
					zap.Int64("user_id", id), zap.Error(err))
			}
		}
	}
}

func (svc *Service) record(action string, actorID, targetID int64, req interface{}, err error) {
	if svc.aud == nil {
		return
	}
	entry := audit.Entry{
		ActorID:  &actorID,
		TargetID: &targetID,
		Action:   action,
		Request:  req,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	svc.aud.Record(entry)
}

// checkPair rejects self-targets and missing profiles.
func (svc *Service) checkPair(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return ErrInvalidTarget
	}
	exists, err := svc.store.ProfileExists(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// ---- friend request lifecycle ----

// SendRequest creates a pending friend request from requester to recipient.
func (svc *Service) SendRequest(ctx context.Context, requesterID, recipientID int64, message string) (*model.FriendEdge, error) {
	if err := svc.checkPair(ctx, requesterID, recipientID); err != nil {
		svc.record("send_request", requesterID, recipientID, nil, err)
		return nil, err
	}
	blocked, err := svc.store.HasActiveBlock(ctx, requesterID, recipientID)
	if err != nil {
		return nil, err
	}
	if blocked {
		svc.record("send_request", requesterID, recipientID, nil, ErrBlocked)
		return nil, ErrBlocked
	}

	// One edge per unordered pair: a pending request in either direction, an
	// accepted friendship, or a leftover declined row all bar a new request,
	// each with its own error kind for caller messaging.
	if existing, err := svc.store.GetFriendEdge(ctx, requesterID, recipientID); err == nil {
		switch existing.Status {
		case model.FriendAccepted:
			err = ErrAlreadyFriends
		case model.FriendPending:
			err = ErrRequestPending
		case model.FriendDeclined:
			err = ErrPreviouslyDeclined
		default:
			err = ErrBlocked
		}
		svc.record("send_request", requesterID, recipientID, nil, err)
		return nil, err
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	edge := &model.FriendEdge{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Message:     message,
	}
	// The unique pair index resolves concurrent A→B / B→A races: exactly one
	// insert survives, the loser gets Conflict.
	if err := svc.store.CreateFriendRequest(ctx, edge); err != nil {
		svc.record("send_request", requesterID, recipientID, nil, err)
		return nil, err
	}
	svc.record("send_request", requesterID, recipientID, edge, nil)
	svc.invalidate(ctx, requesterID, recipientID)
	svc.logger.Info("friend request sent",
		zap.Int64("requester", requesterID), zap.Int64("recipient", recipientID))
	return edge, nil
}

// AcceptRequest transitions the pending request from requesterID to actorID
// into an accepted friendship. Only the recipient may accept.
func (svc *Service) AcceptRequest(ctx context.Context, actorID, requesterID int64) (*model.FriendEdge, error) {
	edge, err := svc.pendingEdge(ctx, actorID, requesterID)
	if err != nil {
		svc.record("accept", actorID, requesterID, nil, err)
		return nil, err
	}
	if edge.RecipientID != actorID {
		svc.record("accept", actorID, requesterID, nil, ErrForbidden)
		return nil, ErrForbidden
	}
	updated, err := svc.store.UpdateFriendStatus(ctx, edge.ID, model.FriendAccepted)
	if err != nil {
		return nil, err
	}
	svc.record("accept", actorID, requesterID, updated, nil)
	svc.invalidate(ctx, actorID, requesterID)
	svc.logger.Info("friend request accepted",
		zap.Int64("recipient", actorID), zap.Int64("requester", requesterID))
	return updated, nil
}

// DeclineRequest removes the pending request from requesterID to actorID.
// The row is deleted rather than kept as history, so a future request in
// either direction is possible.
func (svc *Service) DeclineRequest(ctx context.Context, actorID, requesterID int64) error {
	edge, err := svc.pendingEdge(ctx, actorID, requesterID)
	if err != nil {
		svc.record("decline", actorID, requesterID, nil, err)
		return err
	}
	if edge.RecipientID != actorID {
		svc.record("decline", actorID, requesterID, nil, ErrForbidden)
		return ErrForbidden
	}
	if err := svc.store.DeleteFriendEdge(ctx, edge.ID); err != nil {
		return err
	}
	svc.record("decline", actorID, requesterID, nil, nil)
	svc.invalidate(ctx, actorID, requesterID)
	return nil
}

// CancelRequest withdraws a pending request the actor sent.
func (svc *Service) CancelRequest(ctx context.Context, actorID, recipientID int64) error {
	edge, err := svc.pendingEdge(ctx, actorID, recipientID)
	if err != nil {
		svc.record("cancel", actorID, recipientID, nil, err)
		return err
	}
	if edge.RequesterID != actorID {
		svc.record("cancel", actorID, recipientID, nil, ErrForbidden)
		return ErrForbidden
	}
	if err := svc.store.DeleteFriendEdge(ctx, edge.ID); err != nil {
		return err
	}
	svc.record("cancel", actorID, recipientID, nil, nil)
	svc.invalidate(ctx, actorID, recipientID)
	return nil
}

// Unfriend deletes an accepted friendship. Either party may remove it; the
// row is deleted outright so a new request can be sent later.
func (svc *Service) Unfriend(ctx context.Context, actorID, otherID int64) error {
	edge, err := svc.store.GetFriendEdge(ctx, actorID, otherID)
	if err != nil {
		svc.record("unfriend", actorID, otherID, nil, err)
		return err
	}
	if edge.Status != model.FriendAccepted {
		svc.record("unfriend", actorID, otherID, nil, ErrNotFound)
		return ErrNotFound
	}
	if err := svc.store.DeleteFriendEdge(ctx, edge.ID); err != nil {
		return err
	}
	svc.record("unfriend", actorID, otherID, nil, nil)
	svc.invalidate(ctx, actorID, otherID)
	svc.logger.Info("unfriended",
		zap.Int64("actor", actorID), zap.Int64("other", otherID))
	return nil
}

// pendingEdge returns the pending edge between the pair, mapping any other
// state to NotFound.
func (svc *Service) pendingEdge(ctx context.Context, a, b int64) (*model.FriendEdge, error) {
	edge, err := svc.store.GetFriendEdge(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if edge.Status != model.FriendPending {
		return nil, ErrNotFound
	}
	return edge, nil
}

// ---- follows ----

// Follow creates a directed follow edge. No approval step; only an active
// block in either direction forbids it.
func (svc *Service) Follow(ctx context.Context, followerID, followeeID int64) (*model.FollowEdge, error) {
	if err := svc.checkPair(ctx, followerID, followeeID); err != nil {
		svc.record("follow", followerID, followeeID, nil, err)
		return nil, err
	}
	blocked, err := svc.store.HasActiveBlock(ctx, followerID, followeeID)
	if err != nil {
		return nil, err
	}
	if blocked {
		svc.record("follow", followerID, followeeID, nil, ErrBlocked)
		return nil, ErrBlocked
	}
	edge := &model.FollowEdge{FollowerID: followerID, FolloweeID: followeeID}
	if err := svc.store.CreateFollow(ctx, edge); err != nil {
		svc.record("follow", followerID, followeeID, nil, err)
		return nil, err
	}
	svc.record("follow", followerID, followeeID, edge, nil)
	svc.invalidate(ctx, followerID, followeeID)
	return edge, nil
}

// Unfollow removes the actor's follow edge to followeeID.
func (svc *Service) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	if err := svc.store.DeleteFollow(ctx, followerID, followeeID); err != nil {
		svc.record("unfollow", followerID, followeeID, nil, err)
		return err
	}
	svc.record("unfollow", followerID, followeeID, nil, nil)
	svc.invalidate(ctx, followerID, followeeID)
	return nil
}

// ---- blocks ----

// Block creates a block edge from actor to target. In the same transaction
// it removes any friend edge and both directions of follow between the pair;
// a block row without those deletions would be a partially-applied state.
func (svc *Service) Block(ctx context.Context, blockerID, blockedID int64, reason string, expiresAt *time.Time) (*model.BlockEdge, error) {
	if blockerID == blockedID {
		svc.record("block", blockerID, blockedID, nil, ErrInvalidTarget)
		return nil, ErrInvalidTarget
	}
	exists, err := svc.store.ProfileExists(ctx, blockedID)
	if err != nil {
		return nil, err
	}
	if !exists {
		svc.record("block", blockerID, blockedID, nil, ErrNotFound)
		return nil, ErrNotFound
	}
	if _, err := svc.store.GetActiveBlock(ctx, blockerID, blockedID); err == nil {
		svc.record("block", blockerID, blockedID, nil, ErrConflict)
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	edge := &model.BlockEdge{
		BlockerID: blockerID,
		BlockedID: blockedID,
		Reason:    reason,
		ExpiresAt: expiresAt,
	}
	err = svc.store.Transaction(ctx, func(tx *Store) error {
		if err := tx.DeleteFriendEdgeBetween(ctx, blockerID, blockedID); err != nil {
			return err
		}
		if err := tx.DeleteFollowsBetween(ctx, blockerID, blockedID); err != nil {
			return err
		}
		return tx.CreateBlock(ctx, edge)
	})
	if err != nil {
		svc.record("block", blockerID, blockedID, nil, err)
		return nil, err
	}
	svc.record("block", blockerID, blockedID, edge, nil)
	svc.invalidate(ctx, blockerID, blockedID)
	svc.logger.Info("user blocked",
		zap.Int64("blocker", blockerID), zap.Int64("blocked", blockedID))
	return edge, nil
}

// Unblock removes the actor's block edge on targetID.
func (svc *Service) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	if err := svc.store.DeleteBlock(ctx, blockerID, blockedID); err != nil {
		svc.record("unblock", blockerID, blockedID, nil, err)
		return err
	}
	svc.record("unblock", blockerID, blockedID, nil, nil)
	svc.invalidate(ctx, blockerID, blockedID)
	return nil
}

// ---- queries ----

// Relationship resolves the full relationship state between viewer and
// subject in one pass, so visibility checks for multiple fields need no
// further lookups.
func (svc *Service) Relationship(ctx context.Context, viewerID, subjectID int64) (RelationshipState, error) {
	state := RelationshipState{ViewerID: viewerID, SubjectID: subjectID}
	if viewerID == subjectID {
		state.Self = true
		return state, nil
	}

	blocked, err := svc.store.HasActiveBlock(ctx, viewerID, subjectID)
	if err != nil {
		return state, err
	}
	state.Blocked = blocked
	// An active block supersedes everything else; the pair is treated as
	// unrelated regardless of remaining edges.
	if blocked {
		return state, nil
	}

	edge, err := svc.store.GetFriendEdge(ctx, viewerID, subjectID)
	switch {
	case err == nil:
		switch edge.Status {
		case model.FriendAccepted:
			state.Friends = true
		case model.FriendPending:
			if edge.RequesterID == viewerID {
				state.PendingOutgoing = true
			} else {
				state.PendingIncoming = true
			}
		}
	case !errors.Is(err, ErrNotFound):
		return state, err
	}

	if state.Following, err = svc.store.IsFollowing(ctx, viewerID, subjectID); err != nil {
		return state, err
	}
	if state.FollowedBy, err = svc.store.IsFollowing(ctx, subjectID, viewerID); err != nil {
		return state, err
	}
	return state, nil
}

// AreFriends reports whether an accepted edge exists between a and b.
func (svc *Service) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	edge, err := svc.store.GetFriendEdge(ctx, a, b)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return edge.Status == model.FriendAccepted, nil
}

// IsFollowing reports whether follower→followee exists.
func (svc *Service) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return svc.store.IsFollowing(ctx, followerID, followeeID)
}

// Friends returns the user's accepted friendships joined with profiles,
// newest acceptance first. FriendshipDate is the acceptance time.
func (svc *Service) Friends(ctx context.Context, userID int64, page Page) ([]Friend, error) {
	edges, err := svc.store.ListFriendEdges(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, otherParty(e, userID))
	}
	profiles, err := svc.store.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	friends := make([]Friend, 0, len(edges))
	for _, e := range edges {
		p, ok := profiles[otherParty(e, userID)]
		if !ok {
			continue
		}
		friends = append(friends, Friend{
			Profile:        p,
			FriendshipDate: e.UpdatedAt,
			Message:        e.Message,
		})
	}
	return friends, nil
}

// IncomingRequests returns pending requests addressed to the user.
func (svc *Service) IncomingRequests(ctx context.Context, userID int64, page Page) ([]model.FriendEdge, error) {
	return svc.store.ListIncomingRequests(ctx, userID, page)
}

// OutgoingRequests returns pending requests the user has sent.
func (svc *Service) OutgoingRequests(ctx context.Context, userID int64, page Page) ([]model.FriendEdge, error) {
	return svc.store.ListOutgoingRequests(ctx, userID, page)
}

// Followers returns profiles following the user, newest first.
func (svc *Service) Followers(ctx context.Context, userID int64, page Page) ([]model.Profile, error) {
	edges, err := svc.store.ListFollowers(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.FollowerID)
	}
	return svc.profilesInOrder(ctx, ids)
}

// Following returns profiles the user follows, newest first.
func (svc *Service) Following(ctx context.Context, userID int64, page Page) ([]model.Profile, error) {
	edges, err := svc.store.ListFollowing(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.FolloweeID)
	}
	return svc.profilesInOrder(ctx, ids)
}

// Blocked returns the user's block list, newest first.
func (svc *Service) Blocked(ctx context.Context, userID int64, page Page) ([]model.BlockEdge, error) {
	return svc.store.ListBlocked(ctx, userID, page)
}

func (svc *Service) profilesInOrder(ctx context.Context, ids []int64) ([]model.Profile, error) {
	byID, err := svc.store.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func otherParty(e model.FriendEdge, userID int64) int64 {
	if e.RequesterID == userID {
		return e.RecipientID
	}
	return e.RequesterID
}
