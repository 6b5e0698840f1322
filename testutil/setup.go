package testutil

import (
	"sync/atomic"
	"testing"

	"github.com/LivSterling/skill-issued-server/cache"
	dbsqlite "github.com/LivSterling/skill-issued-server/db/sqlite"
	"github.com/LivSterling/skill-issued-server/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupTestDB creates an isolated in-memory SQLite database and runs
// AutoMigrate. No external services required.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbsqlite.OpenMemory()
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupCache creates a small bounded cache for tests.
func SetupCache(t *testing.T) *cache.Cache {
	t.Helper()
	return cache.New(cache.Config{Capacity: 128, EventBuffer: 64}, zap.NewNop())
}

var accountSeq int64

// CreateProfile inserts a profile row with a fresh synthetic account id.
func CreateProfile(t *testing.T, db *gorm.DB, username string) *model.Profile {
	t.Helper()
	p := &model.Profile{
		AccountID:    atomic.AddInt64(&accountSeq, 1),
		Username:     username,
		DisplayName:  username,
		PrivacyLevel: model.PrivacyPublic,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
