package cache

import (
	"context"
	"testing"
	"time"

	"github.com/LivSterling/skill-issued-server/pubsub"
	"github.com/LivSterling/skill-issued-server/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBridge_InvalidatesOnMessage(t *testing.T) {
	sc, _ := newSocialCache(t)
	ps := pubsub.NewLocal(16)

	b := NewBridge(ps, sc, false, zap.NewNop())
	b.Start()
	defer b.Stop()

	// Give the subscription loop a moment to attach.
	time.Sleep(20 * time.Millisecond)

	ctx := context.Background()
	_, err := sc.Profile(ctx, 1)
	require.NoError(t, err)
	require.NotZero(t, sc.cache.Len())

	require.NoError(t, ps.Publish(ctx, social.InvalidateChannel, "1"))

	assert.Eventually(t, func() bool {
		return sc.cache.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestBridge_IgnoresMalformedPayload(t *testing.T) {
	sc, _ := newSocialCache(t)
	ps := pubsub.NewLocal(16)

	b := NewBridge(ps, sc, false, zap.NewNop())
	b.Start()
	defer b.Stop()
	time.Sleep(20 * time.Millisecond)

	ctx := context.Background()
	_, err := sc.Profile(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, ps.Publish(ctx, social.InvalidateChannel, "not-a-number"))
	time.Sleep(50 * time.Millisecond)

	// The entry survives a garbage message.
	assert.NotZero(t, sc.cache.Len())
}

func TestBridge_StopIsIdempotent(t *testing.T) {
	sc, _ := newSocialCache(t)
	ps := pubsub.NewLocal(16)

	b := NewBridge(ps, sc, false, zap.NewNop())
	b.Start()
	b.Stop()
	b.Stop()
}

func TestBridge_ServiceMutationReachesRemoteCache(t *testing.T) {
	// Two cache instances connected only through pubsub: a mutation via one
	// service must invalidate the other instance's cache.
	ps := pubsub.NewLocal(16)

	scA, svcA := newSocialCacheWithPubSub(t, ps)
	scB, _ := newSocialCacheWithPubSub(t, ps)
	_ = scA

	b := NewBridge(ps, scB, false, zap.NewNop())
	b.Start()
	defer b.Stop()
	time.Sleep(20 * time.Millisecond)

	ctx := context.Background()
	_, err := scB.Relationship(ctx, 1, 2)
	require.NoError(t, err)
	require.NotZero(t, scB.cache.Len())

	_, err = svcA.SendRequest(ctx, 1, 2, "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return scB.cache.Len() == 0
	}, time.Second, 5*time.Millisecond)
}
