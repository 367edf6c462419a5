package service

import (
	"context"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/pkg/clock"
	"go.uber.org/zap"
)

// PromotionRepository fetches active promotions and applies page and date
// targeting. It never returns an error: a failed fetch means nothing to show.
type PromotionRepository struct {
	log   *zap.Logger
	src   PromotionSource
	clock clock.Clock
}

func NewPromotionRepository(log *zap.Logger, src PromotionSource, clk clock.Clock) *PromotionRepository {
	return &PromotionRepository{log: log, src: src, clock: clk}
}

func (r *PromotionRepository) FetchActive(ctx context.Context, page string) []entity.Promotion {
	all, err := r.src.ListActivePromotions(ctx)
	if err != nil {
		r.log.Warn("fetch promotions failed", zap.String("page", page), zap.Error(err))
		return []entity.Promotion{}
	}
	now := r.clock.Now()
	out := make([]entity.Promotion, 0, len(all))
	for _, p := range all {
		if !p.IsActive {
			continue
		}
		if !matchesPage(p.DisplayRules.Pages, page) {
			continue
		}
		if start, ok := entity.ParseRuleDate(p.DisplayRules.StartDate); ok && start.After(now) {
			continue
		}
		if end, ok := entity.ParseRuleDate(p.DisplayRules.EndDate); ok && end.Before(now) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesPage(pages []string, page string) bool {
	if len(pages) == 0 {
		return true
	}
	for _, p := range pages {
		if p == entity.PageAll || p == page {
			return true
		}
	}
	return false
}
