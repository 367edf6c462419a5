package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/pkg/clock"
	"go.uber.org/zap"
)

type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseAwaitingTrigger Phase = "awaiting_trigger"
	PhaseVisible         Phase = "visible"
	PhaseTransitioning   Phase = "transitioning"
	PhaseHidden          Phase = "hidden"
	PhaseCooldown        Phase = "cooldown"
)

// Timings of one popup episode.
type Timings struct {
	InitialDelay     time.Duration
	RotationInterval time.Duration
	DisplayDuration  time.Duration // single promotion
	DisplayBuffer    time.Duration
	Transition       time.Duration
	Cooldown         time.Duration
	ScrollThreshold  float64 // percent of page height
}

func DefaultTimings() Timings {
	return Timings{
		InitialDelay:     2 * time.Second,
		RotationInterval: 8 * time.Second,
		DisplayDuration:  15 * time.Second,
		DisplayBuffer:    5 * time.Second,
		Transition:       500 * time.Millisecond,
		Cooldown:         30 * time.Second,
		ScrollThreshold:  30,
	}
}

// DisplayFor returns how long a popup with n candidates stays open: long
// enough to rotate through every candidate once plus the buffer.
func (t Timings) DisplayFor(n int) time.Duration {
	if n <= 1 {
		return t.DisplayDuration
	}
	d := time.Duration(n)*t.RotationInterval + t.DisplayBuffer
	if d < t.DisplayDuration {
		return t.DisplayDuration
	}
	return d
}

// Snapshot is the externally visible rotation state.
type Snapshot struct {
	Phase     Phase             `json:"phase"`
	Index     int               `json:"index"`
	Total     int               `json:"total"`
	Promotion *entity.Promotion `json:"promotion,omitempty"`
	Opaque    bool              `json:"opaque"`
	Paused    bool              `json:"paused"`
}

type timerName string

const (
	timerInitial  timerName = "initial_delay"
	timerRotation timerName = "rotation"
	timerDisplay  timerName = "display"
	timerFadeOut  timerName = "fade_out"
	timerFadeIn   timerName = "fade_in"
	timerResume   timerName = "resume"
	timerCooldown timerName = "cooldown"
)

type timerEntry struct {
	seq uint64
	t   clock.Timer
}

type SchedulerDeps struct {
	Log      *zap.Logger
	Clock    clock.Clock
	Caps     CapGate
	Recorder Recorder
	Session  entity.VisitorSession
	Page     string
	Timings  Timings
	// OnChange receives every published snapshot, in order.
	OnChange func(Snapshot)
	// OnIdle runs when a cooldown ends.
	OnIdle func()
}

// RotationScheduler owns the candidate pool, the current index and every
// timer of a popup episode. State is guarded by mu; side effects (engagement
// records, cap writes, snapshot publication, OnIdle) are queued while the
// lock is held and run in order once it is released.
type RotationScheduler struct {
	mu      sync.Mutex
	ctx     context.Context
	deps    SchedulerDeps
	timers  map[timerName]timerEntry
	seq     uint64
	effects []func()

	candidates []entity.Promotion
	index      int
	phase      Phase
	paused     bool
	opaque     bool
	interacted bool
	marked     map[string]bool

	pending    []entity.Promotion
	hasPending bool
	stopped    bool
}

func NewRotationScheduler(ctx context.Context, deps SchedulerDeps) *RotationScheduler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &RotationScheduler{
		ctx:    ctx,
		deps:   deps,
		timers: make(map[timerName]timerEntry),
		phase:  PhaseIdle,
		marked: make(map[string]bool),
	}
}

func (s *RotationScheduler) lock() { s.mu.Lock() }

func (s *RotationScheduler) unlock() {
	effs := s.effects
	s.effects = nil
	s.mu.Unlock()
	for _, f := range effs {
		f()
	}
}

func (s *RotationScheduler) effect(f func()) { s.effects = append(s.effects, f) }

// Load hands a fresh candidate pool to the scheduler. While a popup is on
// screen or cooling down the pool is kept aside until the episode ends.
func (s *RotationScheduler) Load(pool []entity.Promotion) {
	s.lock()
	defer s.unlock()
	if s.stopped {
		return
	}
	pool = dedupeByID(pool)
	switch s.phase {
	case PhaseIdle, PhaseAwaitingTrigger:
		s.apply(pool)
	default:
		s.pending = pool
		s.hasPending = true
	}
}

// Scroll reports the page scroll position in percent.
func (s *RotationScheduler) Scroll(percent float64) bool {
	s.lock()
	defer s.unlock()
	if s.stopped || s.phase != PhaseAwaitingTrigger || percent <= s.deps.Timings.ScrollThreshold {
		return false
	}
	return s.show()
}

// Click opens the current promotion's link and ends the episode. A failed
// navigation leaves the popup as it was.
func (s *RotationScheduler) Click(nav Navigator) error {
	s.lock()
	defer s.unlock()
	if s.stopped || !s.onScreen() {
		return ErrNotVisible
	}
	p := s.candidates[s.index]
	s.paused = true
	if err := nav.Open(p.ButtonLink); err != nil {
		s.paused = false
		s.deps.Log.Info("click-through failed", zap.String("promotion_id", p.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	meta := s.meta()
	meta.TargetURL = p.ButtonLink
	meta.ButtonText = p.ButtonText
	s.record(p.ID, entity.EventClick, meta)
	s.interacted = true
	s.hide()
	return nil
}

// Dismiss closes the popup on the visitor's request.
func (s *RotationScheduler) Dismiss() bool {
	s.lock()
	defer s.unlock()
	if s.stopped || !s.onScreen() {
		return false
	}
	s.closeCurrent(entity.CloseManual)
	s.interacted = true
	s.hide()
	return true
}

func (s *RotationScheduler) Next() bool { return s.navigate(1) }
func (s *RotationScheduler) Prev() bool { return s.navigate(-1) }

func (s *RotationScheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Stop cancels every timer. Callbacks that already fired are ignored.
func (s *RotationScheduler) Stop() {
	s.lock()
	defer s.unlock()
	s.stopped = true
	s.cancelAll()
}

func (s *RotationScheduler) navigate(dir int) bool {
	s.lock()
	defer s.unlock()
	n := len(s.candidates)
	if s.stopped || !s.onScreen() || n < 2 {
		return false
	}
	s.cancel(timerRotation)
	s.cancel(timerFadeOut)
	s.cancel(timerFadeIn)
	s.paused = true
	s.index = ((s.index+dir)%n + n) % n
	s.phase = PhaseVisible
	s.emitView()
	s.opaque = true
	s.publish()
	s.arm(timerResume, s.deps.Timings.RotationInterval, s.resume)
	return true
}

func (s *RotationScheduler) apply(pool []entity.Promotion) {
	if len(pool) == 0 {
		s.cancel(timerInitial)
		s.candidates = nil
		if s.phase != PhaseIdle {
			s.phase = PhaseIdle
			s.publish()
		}
		return
	}
	wasIdle := s.phase == PhaseIdle
	s.candidates = pool
	s.phase = PhaseAwaitingTrigger
	if wasIdle {
		s.arm(timerInitial, s.initialDelay(pool), func() { s.show() })
		s.publish()
	}
}

func (s *RotationScheduler) initialDelay(pool []entity.Promotion) time.Duration {
	if d := pool[0].DisplayRules.DelaySeconds; d > 0 {
		return time.Duration(d) * time.Second
	}
	return s.deps.Timings.InitialDelay
}

func (s *RotationScheduler) show() bool {
	if s.phase != PhaseAwaitingTrigger || s.interacted {
		return false
	}
	s.cancel(timerInitial)
	pool := make([]entity.Promotion, 0, len(s.candidates))
	for _, p := range s.candidates {
		if s.deps.Caps.ShouldShow(s.ctx, p) {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		s.candidates = nil
		s.phase = PhaseIdle
		s.publish()
		return false
	}
	s.candidates = pool
	s.index = 0
	s.paused = false
	s.marked = make(map[string]bool, len(pool))
	s.phase = PhaseVisible
	s.emitView()
	s.opaque = true
	s.publish()
	s.arm(timerDisplay, s.deps.Timings.DisplayFor(len(pool)), s.autoHide)
	s.armRotation()
	s.deps.Log.Debug("popup shown",
		zap.String("session_id", s.deps.Session.SessionID),
		zap.Int("candidates", len(pool)))
	return true
}

func (s *RotationScheduler) armRotation() {
	if len(s.candidates) > 1 {
		s.arm(timerRotation, s.deps.Timings.RotationInterval, s.rotate)
	}
}

func (s *RotationScheduler) rotate() {
	if s.phase != PhaseVisible || len(s.candidates) < 2 || s.paused {
		return
	}
	s.phase = PhaseTransitioning
	s.opaque = false
	s.publish()
	s.arm(timerFadeOut, s.deps.Timings.Transition/2, s.advance)
	s.armRotation()
}

func (s *RotationScheduler) advance() {
	if s.phase != PhaseTransitioning {
		return
	}
	s.index = (s.index + 1) % len(s.candidates)
	s.phase = PhaseVisible
	s.emitView()
	s.publish()
	s.arm(timerFadeIn, s.deps.Timings.Transition-s.deps.Timings.Transition/2, s.fadeIn)
}

func (s *RotationScheduler) fadeIn() {
	if s.phase != PhaseVisible {
		return
	}
	s.opaque = true
	s.publish()
}

func (s *RotationScheduler) resume() {
	if !s.onScreen() {
		return
	}
	s.paused = false
	s.publish()
	s.armRotation()
}

func (s *RotationScheduler) autoHide() {
	if !s.onScreen() {
		return
	}
	s.closeCurrent(entity.CloseAutoHide)
	s.hide()
}

func (s *RotationScheduler) hide() {
	s.cancelAll()
	s.phase = PhaseHidden
	s.opaque = false
	s.publish()
	s.phase = PhaseCooldown
	s.arm(timerCooldown, s.deps.Timings.Cooldown, s.cooled)
}

func (s *RotationScheduler) cooled() {
	s.phase = PhaseIdle
	s.interacted = false
	s.paused = false
	s.candidates = nil
	s.index = 0
	if s.hasPending {
		pool := s.pending
		s.pending, s.hasPending = nil, false
		s.apply(pool)
	}
	if s.phase == PhaseIdle {
		s.publish()
	}
	if s.deps.OnIdle != nil {
		s.effect(s.deps.OnIdle)
	}
}

func (s *RotationScheduler) closeCurrent(reason string) {
	p := s.candidates[s.index]
	meta := s.meta()
	meta.Reason = reason
	s.record(p.ID, entity.EventClose, meta)
}

// emitView records a view of the current candidate and marks it shown the
// first time it appears in this episode.
func (s *RotationScheduler) emitView() {
	p := s.candidates[s.index]
	if !s.marked[p.ID] {
		s.marked[p.ID] = true
		caps, ctx := s.deps.Caps, s.ctx
		s.effect(func() { caps.MarkShown(ctx, p) })
	}
	s.record(p.ID, entity.EventView, s.meta())
}

func (s *RotationScheduler) record(id string, ev entity.EventType, meta entity.EventMetadata) {
	rec := s.deps.Recorder
	s.effect(func() { rec.Record(id, ev, meta) })
}

func (s *RotationScheduler) meta() entity.EventMetadata {
	return entity.EventMetadata{
		Timestamp:       s.deps.Clock.Now().UTC(),
		Page:            s.deps.Page,
		TotalCandidates: len(s.candidates),
		CandidateIndex:  s.index,
		SessionID:       s.deps.Session.SessionID,
		VisitorID:       s.deps.Session.VisitorID,
	}
}

func (s *RotationScheduler) publish() {
	if s.deps.OnChange == nil {
		return
	}
	snap, fn := s.snapshot(), s.deps.OnChange
	s.effect(func() { fn(snap) })
}

func (s *RotationScheduler) snapshot() Snapshot {
	snap := Snapshot{
		Phase:  s.phase,
		Index:  s.index,
		Total:  len(s.candidates),
		Opaque: s.opaque,
		Paused: s.paused,
	}
	if (s.phase == PhaseVisible || s.phase == PhaseTransitioning) && s.index < len(s.candidates) {
		p := s.candidates[s.index]
		snap.Promotion = &p
	}
	return snap
}

func (s *RotationScheduler) onScreen() bool {
	return (s.phase == PhaseVisible || s.phase == PhaseTransitioning) && len(s.candidates) > 0
}

// arm replaces the timer registered under name. The callback is dropped if
// the entry was cancelled or replaced in the meantime.
func (s *RotationScheduler) arm(name timerName, d time.Duration, fire func()) {
	s.cancel(name)
	s.seq++
	seq := s.seq
	t := s.deps.Clock.AfterFunc(d, func() {
		s.lock()
		defer s.unlock()
		e, ok := s.timers[name]
		if s.stopped || !ok || e.seq != seq {
			return
		}
		delete(s.timers, name)
		fire()
	})
	s.timers[name] = timerEntry{seq: seq, t: t}
}

func (s *RotationScheduler) cancel(name timerName) {
	if e, ok := s.timers[name]; ok {
		e.t.Stop()
		delete(s.timers, name)
	}
}

func (s *RotationScheduler) cancelAll() {
	for name := range s.timers {
		s.cancel(name)
	}
}

func dedupeByID(pool []entity.Promotion) []entity.Promotion {
	seen := make(map[string]bool, len(pool))
	out := make([]entity.Promotion, 0, len(pool))
	for _, p := range pool {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}
