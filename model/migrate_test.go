package model_test

import (
	"testing"

	"github.com/LivSterling/skill-issued-server/model"
	"github.com/LivSterling/skill-issued-server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Account
	acc := &model.Account{Username: "test_user", PasswordHash: "hash", Status: 1}
	require.NoError(t, db.Create(acc).Error)
	assert.Greater(t, acc.ID, int64(0))

	var found model.Account
	require.NoError(t, db.First(&found, acc.ID).Error)
	assert.Equal(t, "test_user", found.Username)

	// Profile
	profile := &model.Profile{
		AccountID:    acc.ID,
		Username:     "test_user",
		DisplayName:  "Test User",
		PrivacyLevel: model.PrivacyPublic,
	}
	require.NoError(t, db.Create(profile).Error)
	assert.Greater(t, profile.ID, int64(0))

	// FriendEdge
	edge := &model.FriendEdge{RequesterID: profile.ID, RecipientID: profile.ID + 1}
	edge.NormalizePair()
	edge.Status = model.FriendPending
	require.NoError(t, db.Create(edge).Error)

	var gotEdge model.FriendEdge
	require.NoError(t, db.First(&gotEdge, edge.ID).Error)
	assert.Equal(t, model.FriendPending, gotEdge.Status)

	// FollowEdge
	follow := &model.FollowEdge{FollowerID: profile.ID, FolloweeID: profile.ID + 1}
	require.NoError(t, db.Create(follow).Error)

	// BlockEdge
	block := &model.BlockEdge{BlockerID: profile.ID, BlockedID: profile.ID + 2, Reason: "spam"}
	require.NoError(t, db.Create(block).Error)

	// SocialAuditLog
	al := &model.SocialAuditLog{TraceID: "trace-001", Action: "send_request"}
	require.NoError(t, db.Create(al).Error)
}

func TestFriendEdge_NormalizedPair(t *testing.T) {
	lo, hi := model.NormalizedPair(9, 4)
	assert.Equal(t, int64(4), lo)
	assert.Equal(t, int64(9), hi)

	lo, hi = model.NormalizedPair(4, 9)
	assert.Equal(t, int64(4), lo)
	assert.Equal(t, int64(9), hi)
}

func TestValidUsername(t *testing.T) {
	assert.True(t, model.ValidUsername("abc"))
	assert.True(t, model.ValidUsername("player_One99"))
	assert.False(t, model.ValidUsername("ab"))                        // too short
	assert.False(t, model.ValidUsername("this_name_is_way_too_long")) // over 20
	assert.False(t, model.ValidUsername("bad name"))
	assert.False(t, model.ValidUsername("bad-name"))
}

func TestPrivacyLevel_Valid(t *testing.T) {
	assert.True(t, model.PrivacyPublic.Valid())
	assert.True(t, model.PrivacyFriends.Valid())
	assert.True(t, model.PrivacyPrivate.Valid())
	assert.False(t, model.PrivacyLevel("everyone").Valid())
	assert.False(t, model.PrivacyLevel("").Valid())
}
