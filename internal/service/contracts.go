package service

//go:generate mockgen -source=contracts.go -destination=contracts_mock.go -package=service

import (
	"context"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
)

type AggregatorPort interface {
	Inc(promotionID string, event entity.EventType, now time.Time)
	Run(ctx context.Context)
	Stop(ctx context.Context)
}

type StatsReaderPort interface {
	QueryRange(ctx context.Context, promotionID string, event entity.EventType, from, to time.Time) ([]entity.Point, error)
	QueryTotals(ctx context.Context, promotionID string, from, to time.Time) (entity.PromotionStats, error)
}

// AggregateWriter persists per-minute counters.
type AggregateWriter interface {
	UpsertAggregates(ctx context.Context, rows []AggregateRow) error
}

// AggregateRow is one per-minute counter of one event type.
type AggregateRow struct {
	PromotionID string
	Event       entity.EventType
	TS          time.Time // start of minute (UTC)
	Cnt         int64
}

// PromotionSource lists active promotions, most recently created first.
type PromotionSource interface {
	ListActivePromotions(ctx context.Context) ([]entity.Promotion, error)
}

// EventWriter stores raw engagement events.
type EventWriter interface {
	InsertEvent(ctx context.Context, ev entity.EngagementEvent) error
}

// CapBackend is the key-value store behind frequency caps.
type CapBackend interface {
	HasCap(ctx context.Context, scope entity.CapScope, promotionID string) (bool, error)
	SetCap(ctx context.Context, scope entity.CapScope, promotionID string) error
	ClearCap(ctx context.Context, scope entity.CapScope, promotionID string) error
	DropScope(ctx context.Context, scope entity.CapScope) error
}

// Recorder requests engagement increments; it never blocks on the backend.
type Recorder interface {
	Record(promotionID string, event entity.EventType, meta entity.EventMetadata)
}

type CapGate interface {
	ShouldShow(ctx context.Context, p entity.Promotion) bool
	MarkShown(ctx context.Context, p entity.Promotion)
}

type Fetcher interface {
	FetchActive(ctx context.Context, page string) []entity.Promotion
}

// Navigator opens a click-through link for the visitor.
type Navigator interface {
	Open(url string) error
}
