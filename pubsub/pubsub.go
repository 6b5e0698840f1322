package pubsub

import (
	"context"

	"github.com/LivSterling/skill-issued-server/config"
)

// Message is a received notification.
type Message struct {
	Channel string
	Payload string
}

// PubSub is the push channel used to fan out cache invalidations between
// processes. Delivery is at-least-once from the consumer's point of view:
// duplicates only cost a cache miss.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
}

// New returns a PubSub backed by Redis when an address is configured,
// otherwise an in-process fan-out.
func New(cfg config.PubSubConfig) (PubSub, error) {
	if cfg.RedisAddr != "" {
		return NewRedis(cfg)
	}
	return NewLocal(cfg.Buffer), nil
}
