package pubsub

import (
	"context"
	"sync"
)

type localSub struct {
	ch chan *Message
}

// Local is an in-process fan-out PubSub. Slow subscribers drop messages
// rather than block publishers; the invalidation bridge tolerates loss by
// treating every message as advisory.
type Local struct {
	mu      sync.RWMutex
	subs    map[string][]*localSub
	bufSize int
}

// NewLocal creates a Local with the given per-subscriber buffer size.
func NewLocal(bufSize int) *Local {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &Local{
		subs:    make(map[string][]*localSub),
		bufSize: bufSize,
	}
}

// Publish delivers the message to every subscriber of the channel.
func (p *Local) Publish(_ context.Context, channel, message string) error {
	msg := &Message{Channel: channel, Payload: message}
	p.mu.RLock()
	subs := p.subs[channel]
	p.mu.RUnlock()
	for _, s := range subs {
		select {
		case s.ch <- msg:
		default:
			// Buffer full: drop rather than block.
		}
	}
	return nil
}

// Subscribe returns a message channel for the given channels and a cancel
// function that unsubscribes and closes the channel.
func (p *Local) Subscribe(_ context.Context, channels ...string) (<-chan *Message, func(), error) {
	ch := make(chan *Message, p.bufSize)
	added := make([]*localSub, len(channels))

	p.mu.Lock()
	for i, name := range channels {
		s := &localSub{ch: ch}
		p.subs[name] = append(p.subs[name], s)
		added[i] = s
	}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, name := range channels {
			list := p.subs[name]
			for j, sub := range list {
				if sub == added[i] {
					p.subs[name] = append(list[:j], list[j+1:]...)
					break
				}
			}
		}
		close(ch)
	}

	return ch, cancel, nil
}
