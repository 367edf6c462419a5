package service

import (
	"context"
	"sync"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/pkg/clock"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// EngagementRecorder emits view/click/close events. Counters go to the
// aggregator synchronously; the raw event write runs in the background and
// its failure is only logged.
type EngagementRecorder struct {
	log    *zap.Logger
	writer EventWriter
	agg    AggregatorPort
	clock  clock.Clock
	wg     sync.WaitGroup
}

func NewEngagementRecorder(log *zap.Logger, w EventWriter, agg AggregatorPort, clk clock.Clock) *EngagementRecorder {
	return &EngagementRecorder{log: log, writer: w, agg: agg, clock: clk}
}

func (r *EngagementRecorder) Record(promotionID string, event entity.EventType, meta entity.EventMetadata) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = r.clock.Now()
	}
	meta.Timestamp = meta.Timestamp.UTC()
	r.agg.Inc(promotionID, event, meta.Timestamp)

	ev := entity.EngagementEvent{
		ID:          ulid.Make().String(),
		PromotionID: promotionID,
		Type:        event,
		Metadata:    meta,
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.writer.InsertEvent(context.Background(), ev); err != nil {
			r.log.Warn("record engagement failed",
				zap.String("promotion_id", promotionID),
				zap.String("event", string(event)),
				zap.String("session_id", meta.SessionID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight writes finish or ctx is done.
func (r *EngagementRecorder) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		r.log.Warn("engagement writes still in flight at shutdown")
	}
}
