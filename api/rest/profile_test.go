package rest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *testAPI) setPrivacy(t *testing.T, user testUser, level string) {
	t.Helper()
	w := a.do(t, http.MethodPut, "/api/profile", user.token, gin.H{
		"privacy_level": level,
		"bio":           "my bio",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (a *testAPI) getProfile(t *testing.T, viewer testUser, subjectID int64) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := a.do(t, http.MethodGet, fmt.Sprintf("/api/profiles/%d", subjectID), viewer.token, nil)
	if w.Code != http.StatusOK {
		return w, nil
	}
	return w, decode(t, w)["profile"].(map[string]interface{})
}

func TestProfileGet_PublicVisibleToStranger(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")
	api.setPrivacy(t, alice, "public")

	w, p := api.getProfile(t, bob, alice.profileID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", p["username"])
	assert.Equal(t, "my bio", p["bio"])
}

func TestProfileGet_FriendsLevelHiddenFromStranger(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")
	api.setPrivacy(t, alice, "friends")

	w, p := api.getProfile(t, bob, alice.profileID)
	require.Equal(t, http.StatusOK, w.Code)
	// Identity stays public, the scoped fields are withheld.
	assert.Equal(t, "alice", p["username"])
	assert.NotContains(t, p, "bio")
}

func TestProfileGet_FriendsLevelVisibleToFriend(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")
	api.setPrivacy(t, alice, "friends")

	w := api.do(t, http.MethodPost, "/api/social/friends/request", bob.token,
		gin.H{"target_id": alice.profileID})
	require.Equal(t, http.StatusCreated, w.Code)
	w = api.do(t, http.MethodPost,
		fmt.Sprintf("/api/social/friends/accept/%d", bob.profileID), alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, p := api.getProfile(t, bob, alice.profileID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "my bio", p["bio"])
}

func TestProfileGet_PrivateHiddenEvenFromFriend(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")
	api.setPrivacy(t, alice, "private")

	w := api.do(t, http.MethodPost, "/api/social/friends/request", bob.token,
		gin.H{"target_id": alice.profileID})
	require.Equal(t, http.StatusCreated, w.Code)
	w = api.do(t, http.MethodPost,
		fmt.Sprintf("/api/social/friends/accept/%d", bob.profileID), alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, p := api.getProfile(t, bob, alice.profileID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, p, "bio")
}

func TestProfileGet_SelfSeesEverything(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	api.setPrivacy(t, alice, "private")

	w, p := api.getProfile(t, alice, alice.profileID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "my bio", p["bio"])
}

func TestProfileGet_BlockedPairSeesNotFound(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")

	w := api.do(t, http.MethodPost,
		fmt.Sprintf("/api/social/block/%d", bob.profileID), alice.token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Absence, not forbidden: the block is not disclosed.
	w, _ = api.getProfile(t, bob, alice.profileID)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = api.getProfile(t, alice, bob.profileID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileUpdate_InvalidPrivacyLevel(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")

	w := api.do(t, http.MethodPut, "/api/profile", alice.token, gin.H{
		"privacy_level": "everyone",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileUpdate_VisibleImmediatelyAfterEdit(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")

	// Prime Bob's view of Alice through the cache.
	w, _ := api.getProfile(t, bob, alice.profileID)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPut, "/api/profile", alice.token, gin.H{
		"display_name": "Alice Prime",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The edit invalidated and re-seeded the cache; no stale read.
	w, p := api.getProfile(t, bob, alice.profileID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alice Prime", p["display_name"])
}
