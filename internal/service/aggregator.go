package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"go.uber.org/zap"
)

type key struct {
	promotion string
	event     entity.EventType
	minute    int64 // unix minutes since epoch
}

type shard struct {
	mu   sync.Mutex
	data map[key]int64
}

// Aggregator counts engagement events per promotion, event type and minute
// in memory and periodically flushes the counters to an AggregateWriter.
type Aggregator struct {
	log        *zap.Logger
	writer     AggregateWriter
	shards     []shard
	flushEvery time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func NewAggregator(log *zap.Logger, w AggregateWriter, shardCount int, flushEvery time.Duration) *Aggregator {
	if shardCount <= 0 {
		shardCount = 1
	}
	if flushEvery <= 0 {
		flushEvery = time.Second
	}
	shards := make([]shard, shardCount)
	for i := range shards {
		shards[i] = shard{data: make(map[key]int64, 256)}
	}
	return &Aggregator{log: log, writer: w, shards: shards, flushEvery: flushEvery, stopCh: make(chan struct{})}
}

func minuteUTC(t time.Time) time.Time { return t.UTC().Truncate(time.Minute) }
func bucket(ts time.Time) int64       { return minuteUTC(ts).Unix() / 60 }

func (a *Aggregator) shardIndex(k key) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.promotion))
	_, _ = h.Write([]byte(k.event))
	x := h.Sum64() ^ uint64(k.minute)
	return int(x % uint64(len(a.shards)))
}

func (a *Aggregator) Inc(promotionID string, event entity.EventType, now time.Time) {
	k := key{promotion: promotionID, event: event, minute: bucket(now)}
	sh := &a.shards[a.shardIndex(k)]
	sh.mu.Lock()
	sh.data[k]++
	sh.mu.Unlock()
}

// snapshot copies every shard under its lock; the originals are only cleared
// after a successful write.
func (a *Aggregator) snapshot() ([]map[key]int64, []AggregateRow) {
	tmp := make([]map[key]int64, len(a.shards))
	for i := range a.shards {
		sh := &a.shards[i]
		sh.mu.Lock()
		if len(sh.data) > 0 {
			m := make(map[key]int64, len(sh.data))
			for k, v := range sh.data {
				m[k] = v
			}
			tmp[i] = m
		}
		sh.mu.Unlock()
	}
	var batch []AggregateRow
	for i := range tmp {
		for k, v := range tmp[i] {
			batch = append(batch, AggregateRow{
				PromotionID: k.promotion,
				Event:       k.event,
				TS:          time.Unix(k.minute*60, 0).UTC(),
				Cnt:         v,
			})
		}
	}
	return tmp, batch
}

// subtract removes the flushed counts, keeping increments that raced the write.
func (a *Aggregator) subtract(flushed []map[key]int64) {
	for i := range a.shards {
		if flushed[i] == nil {
			continue
		}
		sh := &a.shards[i]
		sh.mu.Lock()
		for k, v := range flushed[i] {
			if left := sh.data[k] - v; left > 0 {
				sh.data[k] = left
			} else {
				delete(sh.data, k)
			}
		}
		sh.mu.Unlock()
	}
}

func (a *Aggregator) flush(ctx context.Context) {
	tmp, batch := a.snapshot()
	if len(batch) == 0 {
		return
	}
	if err := a.writer.UpsertAggregates(ctx, batch); err != nil {
		a.log.Warn("flush failed", zap.Int("rows", len(batch)), zap.Error(err))
		return
	}
	a.subtract(tmp)
}

func (a *Aggregator) Run(ctx context.Context) {
	t := time.NewTicker(a.flushEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCh:
			return
		case <-t.C:
			a.flush(ctx)
		}
	}
}

// Stop ends Run and makes a final best-effort flush.
func (a *Aggregator) Stop(ctx context.Context) {
	a.stopOnce.Do(func() {
		close(a.stopCh)
		a.flush(ctx)
	})
}
