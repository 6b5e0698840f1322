package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/LivSterling/skill-issued-server/pubsub"
	"github.com/LivSterling/skill-issued-server/social"
	"go.uber.org/zap"
)

// Bridge subscribes to relationship change notifications and drives cache
// invalidation when another session or process mutates shared state.
// Delivery is at-least-once: a duplicate message only costs a cache miss, so
// the bridge never needs to deduplicate, and a dropped connection is healed
// by resubscribing.
type Bridge struct {
	ps     pubsub.PubSub
	sc     *Social
	rewarm bool
	logger *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewBridge creates a Bridge. When rewarm is set, each invalidation kicks
// off a background re-warm of the affected user.
func NewBridge(ps pubsub.PubSub, sc *Social, rewarm bool, logger *zap.Logger) *Bridge {
	return &Bridge{
		ps:     ps,
		sc:     sc,
		rewarm: rewarm,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start launches the subscription loop.
func (b *Bridge) Start() {
	b.wg.Add(1)
	go b.run()
}

// Stop terminates the loop and waits for it to finish.
func (b *Bridge) Stop() {
	select {
	case <-b.stopCh:
	default:
		close(b.stopCh)
	}
	b.wg.Wait()
}

func (b *Bridge) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}

		ctx, cancelCtx := context.WithCancel(context.Background())
		ch, cancelSub, err := b.ps.Subscribe(ctx, social.InvalidateChannel)
		if err != nil {
			cancelCtx()
			b.logger.Warn("bridge subscribe failed, retrying", zap.Error(err))
			select {
			case <-time.After(time.Second):
				continue
			case <-b.stopCh:
				return
			}
		}

		b.consume(ch)
		cancelSub()
		cancelCtx()

		select {
		case <-b.stopCh:
			return
		default:
			// Channel closed underneath us: resubscribe.
		}
	}
}

func (b *Bridge) consume(ch <-chan *pubsub.Message) {
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handle(msg)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bridge) handle(msg *pubsub.Message) {
	userID, err := strconv.ParseInt(msg.Payload, 10, 64)
	if err != nil {
		b.logger.Warn("bridge: malformed invalidation payload",
			zap.String("payload", msg.Payload))
		return
	}
	b.sc.InvalidateUser(userID)
	b.logger.Debug("bridge: invalidated", zap.Int64("user_id", userID))
	if b.rewarm {
		go func() {
			wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			b.sc.Warm(wctx, userID)
		}()
	}
}
