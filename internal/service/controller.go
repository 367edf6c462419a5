package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/pkg/clock"
	"go.uber.org/zap"
)

type ControllerDeps struct {
	Log      *zap.Logger
	Clock    clock.Clock
	Fetcher  Fetcher
	Caps     CapGate
	Recorder Recorder
	Session  entity.VisitorSession
	Page     string
	Timings  Timings
	// Changes delivers backend change notifications; nil disables them.
	Changes  <-chan struct{}
	OnChange func(Snapshot)
}

// PopupController drives one RotationScheduler for one page view: it loads
// candidates on start, on every backend change and after each cooldown, and
// routes visitor input to the scheduler.
type PopupController struct {
	log     *zap.Logger
	deps    ControllerDeps
	sched   *RotationScheduler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool

	// loadMu orders pool hand-off; a fetch started before the last applied
	// one is dropped.
	loadMu  sync.Mutex
	gen     atomic.Uint64
	applied uint64
}

func NewPopupController(parent context.Context, deps ControllerDeps) *PopupController {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	c := &PopupController{
		log:    deps.Log.With(zap.String("session_id", deps.Session.SessionID), zap.String("page", deps.Page)),
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
	}
	c.sched = NewRotationScheduler(ctx, SchedulerDeps{
		Log:      c.log,
		Clock:    deps.Clock,
		Caps:     deps.Caps,
		Recorder: deps.Recorder,
		Session:  deps.Session,
		Page:     deps.Page,
		Timings:  deps.Timings,
		OnChange: deps.OnChange,
		OnIdle:   func() { c.Refresh(c.ctx) },
	})
	return c
}

// Start performs the first fetch and begins listening for backend changes.
// Cancelling the parent context stops the controller like Stop does.
func (c *PopupController) Start() {
	c.Refresh(c.ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		changes := c.deps.Changes
		for {
			select {
			case <-c.ctx.Done():
				c.sched.Stop()
				return
			case _, ok := <-changes:
				if !ok {
					changes = nil
					continue
				}
				c.log.Debug("promotions changed, refetching")
				c.Refresh(c.ctx)
			}
		}
	}()
}

// Refresh fetches, filters and loads a new candidate pool. Results that
// arrive after Stop, or after a newer fetch was applied, are dropped.
func (c *PopupController) Refresh(ctx context.Context) {
	if c.isStopped() {
		return
	}
	gen := c.gen.Add(1)
	fetched := c.deps.Fetcher.FetchActive(ctx, c.deps.Page)
	if c.isStopped() || ctx.Err() != nil {
		return
	}
	pool := make([]entity.Promotion, 0, len(fetched))
	for _, p := range fetched {
		if !audienceMatches(p.DisplayRules.TargetAudience, c.deps.Session) {
			continue
		}
		if !c.deps.Caps.ShouldShow(ctx, p) {
			continue
		}
		pool = append(pool, p)
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if gen < c.applied {
		c.log.Debug("stale fetch dropped", zap.Uint64("gen", gen), zap.Uint64("applied", c.applied))
		return
	}
	c.applied = gen
	c.sched.Load(pool)
}

func (c *PopupController) Scroll(percent float64) bool { return c.sched.Scroll(percent) }

func (c *PopupController) Click(nav Navigator) error { return c.sched.Click(nav) }

func (c *PopupController) Dismiss() bool { return c.sched.Dismiss() }

func (c *PopupController) Next() bool { return c.sched.Next() }

func (c *PopupController) Prev() bool { return c.sched.Prev() }

func (c *PopupController) Snapshot() Snapshot { return c.sched.Snapshot() }

// Stop cancels every timer and the change listener. Safe to call twice.
func (c *PopupController) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	c.sched.Stop()
	c.wg.Wait()
}

func (c *PopupController) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func audienceMatches(a entity.TargetAudience, s entity.VisitorSession) bool {
	switch a {
	case entity.AudienceNew:
		return !s.Returning
	case entity.AudienceReturning:
		return s.Returning
	default:
		return true
	}
}
