package service

import (
	"context"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"go.uber.org/zap"
)

// FrequencyCapStore answers whether a promotion may be shown to the current
// visitor session and records first views. Storage failures fail open.
type FrequencyCapStore struct {
	log     *zap.Logger
	backend CapBackend
	session entity.VisitorSession
}

func NewFrequencyCapStore(log *zap.Logger, backend CapBackend, session entity.VisitorSession) *FrequencyCapStore {
	return &FrequencyCapStore{log: log, backend: backend, session: session}
}

// scope returns the cap namespace for a policy; ok is false for ShowAlways.
func (s *FrequencyCapStore) scope(f entity.ShowFrequency) (entity.CapScope, bool) {
	switch f {
	case entity.ShowOnce:
		return entity.CapScope{Tier: entity.CapDurable, Owner: s.session.VisitorID}, true
	case entity.ShowSession:
		return entity.CapScope{Tier: entity.CapVolatile, Owner: s.session.SessionID}, true
	default:
		return entity.CapScope{}, false
	}
}

func (s *FrequencyCapStore) ShouldShow(ctx context.Context, p entity.Promotion) bool {
	sc, ok := s.scope(p.Frequency())
	if !ok {
		return true
	}
	capped, err := s.backend.HasCap(ctx, sc, p.ID)
	if err != nil {
		s.log.Warn("frequency cap read failed, showing uncapped",
			zap.String("promotion_id", p.ID), zap.String("scope", sc.Key()), zap.Error(err))
		return true
	}
	return !capped
}

func (s *FrequencyCapStore) MarkShown(ctx context.Context, p entity.Promotion) {
	sc, ok := s.scope(p.Frequency())
	if !ok {
		return
	}
	if err := s.backend.SetCap(ctx, sc, p.ID); err != nil {
		s.log.Warn("frequency cap write failed",
			zap.String("promotion_id", p.ID), zap.String("scope", sc.Key()), zap.Error(err))
	}
}

// Clear removes the cap entry of p only.
func (s *FrequencyCapStore) Clear(ctx context.Context, p entity.Promotion) error {
	sc, ok := s.scope(p.Frequency())
	if !ok {
		return nil
	}
	return s.backend.ClearCap(ctx, sc, p.ID)
}
