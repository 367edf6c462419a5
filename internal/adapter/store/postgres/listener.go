package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Listener relays NOTIFY messages on a channel to a callback.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	log     *zap.Logger
}

func NewListener(pool *pgxpool.Pool, channel string, log *zap.Logger) *Listener {
	return &Listener{pool: pool, channel: channel, log: log}
}

// Listen holds one pooled connection until ctx is done or the connection
// fails.
func (l *Listener) Listen(ctx context.Context, notify func()) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if !conn.Conn().IsClosed() {
			_, _ = conn.Exec(context.Background(), "UNLISTEN *")
		}
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}
	l.log.Info("listening for promotion changes", zap.String("channel", l.channel))
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		l.log.Debug("promotion change", zap.String("op", n.Payload))
		notify()
	}
}
