package redis

import (
	"context"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/internal/service"
	goredis "github.com/redis/go-redis/v9"
)

// CapStore keeps one hash per cap scope, field = promotion id.
type CapStore struct {
	rdb *goredis.Client
	// sessionTTL expires volatile scopes whose session never closed cleanly.
	sessionTTL time.Duration
}

func NewCapStore(rdb *goredis.Client, sessionTTL time.Duration) *CapStore {
	return &CapStore{rdb: rdb, sessionTTL: sessionTTL}
}

func (s *CapStore) HasCap(ctx context.Context, scope entity.CapScope, promotionID string) (bool, error) {
	return s.rdb.HExists(ctx, scope.Key(), promotionID).Result()
}

func (s *CapStore) SetCap(ctx context.Context, scope entity.CapScope, promotionID string) error {
	key := scope.Key()
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, promotionID, time.Now().UTC().Unix())
	if scope.Tier == entity.CapVolatile && s.sessionTTL > 0 {
		pipe.Expire(ctx, key, s.sessionTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *CapStore) ClearCap(ctx context.Context, scope entity.CapScope, promotionID string) error {
	return s.rdb.HDel(ctx, scope.Key(), promotionID).Err()
}

func (s *CapStore) DropScope(ctx context.Context, scope entity.CapScope) error {
	return s.rdb.Del(ctx, scope.Key()).Err()
}

var _ service.CapBackend = (*CapStore)(nil)
