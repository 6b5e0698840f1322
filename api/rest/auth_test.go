package rest

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreatesAccountAndProfile(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")

	assert.NotEmpty(t, alice.token)
	assert.Positive(t, alice.accountID)
	assert.Positive(t, alice.profileID)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice")

	w := api.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_InvalidUsername(t *testing.T) {
	api := newTestAPI(t)

	for _, name := range []string{"ab", "bad name", "bad-name!"} {
		w := api.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": name,
			"password": "hunter2hunter2",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "username %q must be rejected", name)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")

	w := api.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, float64(alice.profileID), body["profile_id"])
}

func TestLogin_WrongPassword(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice")

	w := api.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrongwrongwrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_UnknownUser(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "nobody",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
