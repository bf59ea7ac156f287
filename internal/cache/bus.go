package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultChannel carries invalidations between instances.
const DefaultChannel = "jobmatch:cache:invalidations"

const resubscribeDelay = time.Second

// pubsub is the consumer interface for the message transport (ISP).
type pubsub interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channel string, fn func(message string)) error
}

type busMessage struct {
	Origin string   `json:"origin"`
	Tags   []string `json:"tags"`
}

// Bus broadcasts tag invalidations over a pub/sub channel. Each instance
// ignores its own messages.
type Bus struct {
	ps      pubsub
	channel string
	origin  string
	logger  *zap.Logger
}

// NewBus creates a bus with a random origin id.
func NewBus(ps pubsub, channel string, logger *zap.Logger) *Bus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Bus{ps: ps, channel: channel, origin: uuid.NewString(), logger: logger}
}

// Origin returns this instance's id.
func (b *Bus) Origin() string { return b.origin }

// Publish broadcasts tags.
func (b *Bus) Publish(ctx context.Context, tags []string) error {
	data, err := json.Marshal(busMessage{Origin: b.origin, Tags: tags})
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := b.ps.Publish(ctx, b.channel, string(data)); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Run delivers invalidations from other instances to apply until ctx is done,
// resubscribing after transport errors.
func (b *Bus) Run(ctx context.Context, apply func(ctx context.Context, tags ...string) error) {
	for ctx.Err() == nil {
		err := b.ps.Subscribe(ctx, b.channel, func(message string) {
			b.handle(ctx, message, apply)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			b.logger.Warn("Invalidation subscription dropped", zap.String("channel", b.channel), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

func (b *Bus) handle(ctx context.Context, message string, apply func(ctx context.Context, tags ...string) error) {
	var msg busMessage
	if err := json.Unmarshal([]byte(message), &msg); err != nil {
		b.logger.Warn("Malformed invalidation message", zap.Error(err))
		return
	}
	if msg.Origin == b.origin || len(msg.Tags) == 0 {
		return
	}
	if err := apply(ctx, msg.Tags...); err != nil {
		b.logger.Warn("Failed to apply remote invalidation", zap.Strings("tags", msg.Tags), zap.Error(err))
	}
}
