package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Feed turns pub/sub messages on a channel into change notifications.
type Feed struct {
	rdb     *goredis.Client
	channel string
	log     *zap.Logger
}

func NewFeed(rdb *goredis.Client, channel string, log *zap.Logger) *Feed {
	return &Feed{rdb: rdb, channel: channel, log: log}
}

// Listen blocks until ctx is done or the subscription fails.
func (f *Feed) Listen(ctx context.Context, notify func()) error {
	sub := f.rdb.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	f.log.Info("listening for promotion changes", zap.String("channel", f.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok || m == nil {
				return fmt.Errorf("redis subscription to %q closed", f.channel)
			}
			f.log.Debug("promotion change", zap.String("payload", m.Payload))
			notify()
		}
	}
}

// Publish announces a promotion change to every replica.
func (f *Feed) Publish(ctx context.Context, payload string) error {
	return f.rdb.Publish(ctx, f.channel, payload).Err()
}
