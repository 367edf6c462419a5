package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/adapter/store/memory"
	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/pkg/clock"
	"github.com/golang/mock/gomock"
	"go.uber.org/zap"
)

type controllerHarness struct {
	c   *PopupController
	clk *clock.Fake
	j   *journal
}

func newControllerHarness(t *testing.T, f Fetcher, session entity.VisitorSession, changes <-chan struct{}) *controllerHarness {
	t.Helper()
	j := newJournal()
	clk := clock.NewFake(time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC))
	c := NewPopupController(context.Background(), ControllerDeps{
		Log:      zap.NewNop(),
		Clock:    clk,
		Fetcher:  f,
		Caps:     NewFrequencyCapStore(zap.NewNop(), memory.NewCapStore(), session),
		Recorder: j,
		Session:  session,
		Page:     "/",
		Timings:  DefaultTimings(),
		Changes:  changes,
		OnChange: j.onChange,
	})
	t.Cleanup(c.Stop)
	return &controllerHarness{c: c, clk: clk, j: j}
}

func TestPopupController_AudienceFiltering(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pool := promos("all", "new", "returning")
	pool[1].DisplayRules.TargetAudience = entity.AudienceNew
	pool[2].DisplayRules.TargetAudience = entity.AudienceReturning

	f := NewMockFetcher(ctrl)
	f.EXPECT().FetchActive(gomock.Any(), "/").Return(pool).Times(2)

	fresh := newControllerHarness(t, f, entity.VisitorSession{SessionID: "s1", VisitorID: "v1"}, nil)
	fresh.c.Start()
	fresh.clk.Advance(2 * time.Second)
	if snap := fresh.c.Snapshot(); snap.Total != 2 {
		t.Fatalf("new visitor expected 2 candidates, got %+v", snap)
	}

	back := newControllerHarness(t, f, entity.VisitorSession{SessionID: "s2", VisitorID: "v2", Returning: true}, nil)
	back.c.Start()
	back.clk.Advance(2 * time.Second)
	back.c.Next()
	if snap := back.c.Snapshot(); snap.Total != 2 || snap.Promotion.ID != "returning" {
		t.Fatalf("returning visitor expected all+returning, got %+v", snap)
	}
}

func TestPopupController_CappedPromotionsNotLoaded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pool := promos("A", "B")
	pool[0].DisplayRules.ShowFrequency = entity.ShowSession
	f := NewMockFetcher(ctrl)
	f.EXPECT().FetchActive(gomock.Any(), gomock.Any()).Return(pool).AnyTimes()

	h := newControllerHarness(t, f, entity.VisitorSession{SessionID: "s1", VisitorID: "v1"}, nil)
	h.c.Start()
	h.clk.Advance(2 * time.Second)
	h.c.Dismiss()
	h.clk.Advance(30 * time.Second) // cooldown, refetch
	h.clk.Advance(2 * time.Second)

	snap := h.c.Snapshot()
	if snap.Total != 1 || snap.Promotion.ID != "B" {
		t.Fatalf("session-capped A must be excluded in the second episode, got %+v", snap)
	}
}

func TestPopupController_CooldownRefetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := NewMockFetcher(ctrl)
	gomock.InOrder(
		f.EXPECT().FetchActive(gomock.Any(), "/").Return(promos("A")),
		f.EXPECT().FetchActive(gomock.Any(), "/").Return(promos("B")),
	)

	h := newControllerHarness(t, f, entity.VisitorSession{SessionID: "s1", VisitorID: "v1"}, nil)
	h.c.Start()
	h.clk.Advance(2 * time.Second)
	if !h.c.Dismiss() {
		t.Fatalf("dismiss failed")
	}
	h.clk.Advance(30*time.Second - time.Millisecond)
	if got := h.c.Snapshot().Phase; got != PhaseCooldown {
		t.Fatalf("expected cooldown, got %s", got)
	}
	h.clk.Advance(time.Millisecond)
	h.clk.Advance(2 * time.Second)
	if snap := h.c.Snapshot(); snap.Phase != PhaseVisible || snap.Promotion.ID != "B" {
		t.Fatalf("expected the refetched pool to be shown, got %+v", snap)
	}
	if got := h.j.ids(entity.EventView); !equalStrings(got, []string{"A", "B"}) {
		t.Fatalf("unexpected views %v", got)
	}
}

func TestPopupController_ChangeNotificationRefetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetched := make(chan struct{}, 4)
	f := NewMockFetcher(ctrl)
	gomock.InOrder(
		f.EXPECT().FetchActive(gomock.Any(), "/").Return(promos("A")),
		f.EXPECT().FetchActive(gomock.Any(), "/").DoAndReturn(func(context.Context, string) []entity.Promotion {
			defer func() { fetched <- struct{}{} }()
			return promos("X", "Y")
		}),
	)

	changes := make(chan struct{}, 1)
	h := newControllerHarness(t, f, entity.VisitorSession{SessionID: "s1", VisitorID: "v1"}, changes)
	h.c.Start()
	h.clk.Advance(2 * time.Second)

	changes <- struct{}{}
	waitCh(t, fetched, time.Second)

	// give the listener time to hand the pool to the scheduler
	deadline := time.Now().Add(time.Second)
	for {
		snap := h.c.Snapshot()
		if snap.Promotion == nil || snap.Promotion.ID != "A" || snap.Total != 1 {
			t.Fatalf("visible popup pre-empted by a change notification: %+v", snap)
		}
		h.c.sched.mu.Lock()
		pending := h.c.sched.hasPending
		h.c.sched.mu.Unlock()
		if pending {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("refetched pool was never handed to the scheduler")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPopupController_StopDiscardsInFlightFetch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	f := fetcherFunc(func(ctx context.Context, _ string) []entity.Promotion {
		close(started)
		<-release
		return promos("A")
	})

	h := newControllerHarness(t, f, entity.VisitorSession{SessionID: "s1", VisitorID: "v1"}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.c.Refresh(context.Background())
	}()
	waitCh(t, started, time.Second)

	h.c.Stop()
	close(release)
	wg.Wait()

	if got := h.c.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("result applied after stop: %s", got)
	}
	if n := h.clk.Pending(); n != 0 {
		t.Fatalf("timers armed after stop: %d", n)
	}
}

func TestPopupController_StopCancelsTimers(t *testing.T) {
	h := newControllerHarness(t, fetcherFunc(func(context.Context, string) []entity.Promotion {
		return promos("A", "B")
	}), entity.VisitorSession{SessionID: "s1", VisitorID: "v1"}, make(chan struct{}))
	h.c.Start()
	h.clk.Advance(2 * time.Second)

	h.c.Stop()
	h.c.Stop()
	if n := h.clk.Pending(); n != 0 {
		t.Fatalf("expected no pending timers, got %d", n)
	}
	before := len(h.j.all())
	h.clk.Advance(time.Hour)
	if len(h.j.all()) != before {
		t.Fatalf("events emitted after stop")
	}
}

func TestPopupController_StaleFetchDoesNotReplaceNewerPool(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	f := fetcherFunc(func(context.Context, string) []entity.Promotion {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		switch n {
		case 1:
			return promos("A")
		case 2:
			close(slowStarted)
			<-releaseSlow
			return promos("OLD")
		default:
			return promos("NEW")
		}
	})

	h := newControllerHarness(t, f, entity.VisitorSession{SessionID: "s1", VisitorID: "v1"}, nil)
	h.c.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.c.Refresh(context.Background())
	}()
	waitCh(t, slowStarted, time.Second)

	h.c.Refresh(context.Background())
	close(releaseSlow)
	waitCh(t, done, time.Second)

	h.clk.Advance(2 * time.Second)
	snap := h.c.Snapshot()
	if snap.Phase != PhaseVisible || snap.Total != 1 || snap.Promotion.ID != "NEW" {
		t.Fatalf("older fetch replaced the newer pool: %+v", snap)
	}
}

func TestPopupController_ParentCancelStops(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC))
	j := newJournal()
	session := entity.VisitorSession{SessionID: "s1", VisitorID: "v1"}
	parent, cancel := context.WithCancel(context.Background())
	c := NewPopupController(parent, ControllerDeps{
		Log:      zap.NewNop(),
		Clock:    clk,
		Fetcher:  fetcherFunc(func(context.Context, string) []entity.Promotion { return promos("A") }),
		Caps:     NewFrequencyCapStore(zap.NewNop(), memory.NewCapStore(), session),
		Recorder: j,
		Session:  session,
		Page:     "/",
		Timings:  DefaultTimings(),
		OnChange: j.onChange,
	})
	defer c.Stop()
	c.Start()
	if clk.Pending() == 0 {
		t.Fatalf("initial delay not armed")
	}

	cancel()
	deadline := time.Now().Add(time.Second)
	for clk.Pending() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timers still armed after parent cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
	clk.Advance(time.Minute)
	if views := j.ids(entity.EventView); len(views) != 0 {
		t.Fatalf("views recorded after parent cancel: %v", views)
	}
}

type fetcherFunc func(ctx context.Context, page string) []entity.Promotion

func (f fetcherFunc) FetchActive(ctx context.Context, page string) []entity.Promotion {
	return f(ctx, page)
}
