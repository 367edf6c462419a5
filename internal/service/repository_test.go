package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/pkg/clock"
	"github.com/golang/mock/gomock"
	"go.uber.org/zap"
)

func TestPromotionRepository_FetchActive_Filters(t *testing.T) {
	now := time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)
	promo := func(id string, rules entity.DisplayRules) entity.Promotion {
		return entity.Promotion{ID: id, IsActive: true, DisplayRules: rules}
	}

	tests := []struct {
		name  string
		promo entity.Promotion
		page  string
		want  bool
	}{
		{"no pages targets everything", promo("a", entity.DisplayRules{}), "/blog/x", true},
		{"all page", promo("b", entity.DisplayRules{Pages: []string{"all"}}), "/blog/x", true},
		{"exact page", promo("c", entity.DisplayRules{Pages: []string{"/", "/blog/x"}}), "/blog/x", true},
		{"other page", promo("d", entity.DisplayRules{Pages: []string{"/about"}}), "/blog/x", false},
		{"starts tomorrow", promo("e", entity.DisplayRules{StartDate: "2025-10-20"}), "/", false},
		{"started", promo("f", entity.DisplayRules{StartDate: "2025-10-19T11:00:00Z"}), "/", true},
		{"ended yesterday", promo("g", entity.DisplayRules{EndDate: "2025-10-18"}), "/", false},
		{"ends later", promo("h", entity.DisplayRules{EndDate: "2025-10-19T13:00:00Z"}), "/", true},
		{"unparseable date ignored", promo("i", entity.DisplayRules{EndDate: "soon"}), "/", true},
		{"inactive", entity.Promotion{ID: "j"}, "/", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			src := NewMockPromotionSource(ctrl)
			src.EXPECT().ListActivePromotions(gomock.Any()).Return([]entity.Promotion{tc.promo}, nil)

			repo := NewPromotionRepository(zap.NewNop(), src, clock.NewFake(now))
			got := repo.FetchActive(context.Background(), tc.page)
			if (len(got) == 1) != tc.want {
				t.Fatalf("expected kept=%v, got %v", tc.want, got)
			}
		})
	}
}

func TestPromotionRepository_FetchActive_KeepsOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := NewMockPromotionSource(ctrl)
	src.EXPECT().ListActivePromotions(gomock.Any()).Return([]entity.Promotion{
		{ID: "newest", IsActive: true},
		{ID: "skipped", IsActive: true, DisplayRules: entity.DisplayRules{Pages: []string{"/x"}}},
		{ID: "oldest", IsActive: true},
	}, nil)

	repo := NewPromotionRepository(zap.NewNop(), src, clock.NewFake(time.Now()))
	got := repo.FetchActive(context.Background(), "/")
	if len(got) != 2 || got[0].ID != "newest" || got[1].ID != "oldest" {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestPromotionRepository_FetchActive_FailureIsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := NewMockPromotionSource(ctrl)
	src.EXPECT().ListActivePromotions(gomock.Any()).Return(nil, errors.New("connection refused"))

	repo := NewPromotionRepository(zap.NewNop(), src, clock.NewFake(time.Now()))
	got := repo.FetchActive(context.Background(), "/")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
