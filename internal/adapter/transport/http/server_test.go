package http_server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/adapter/store/memory"
	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/internal/service"
	"github.com/dayanaadylkhanova/promo-rotator/pkg/clock"
	"github.com/golang/mock/gomock"
	"go.uber.org/zap"
)

type fixture struct {
	srv      *Server
	sessions *service.SessionManager
	clk      *clock.Fake
	stats    *service.MockStatsReaderPort
	rec      *service.MockRecorder
}

func newFixture(t *testing.T, pool []entity.Promotion) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	fetcher := service.NewMockFetcher(ctrl)
	fetcher.EXPECT().FetchActive(gomock.Any(), gomock.Any()).Return(pool).AnyTimes()
	rec := service.NewMockRecorder(ctrl)
	stats := service.NewMockStatsReaderPort(ctrl)

	clk := clock.NewFake(time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC))
	sessions := service.NewSessionManager(service.SessionDeps{
		Log:      zap.NewNop(),
		Clock:    clk,
		Fetcher:  fetcher,
		Caps:     memory.NewCapStore(),
		Recorder: rec,
		Timings:  service.DefaultTimings(),
		Changes:  service.NewChangeHub(zap.NewNop()),
	})
	t.Cleanup(func() { sessions.CloseAll(context.Background()) })

	srv := NewServer(zap.NewNop(), sessions, stats, Options{MaxDays: 31})
	return &fixture{srv: srv, sessions: sessions, clk: clk, stats: stats, rec: rec}
}

func promotion(id, link string) entity.Promotion {
	return entity.Promotion{
		ID:           id,
		Title:        "title " + id,
		ButtonText:   "Go",
		ButtonLink:   link,
		IsActive:     true,
		DisplayRules: entity.DisplayRules{ShowFrequency: entity.ShowAlways},
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func (f *fixture) open(t *testing.T, body string) sessionResponse {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/sessions", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("open: status %d body %s", rr.Code, rr.Body.String())
	}
	var out sessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestSessionFlow(t *testing.T) {
	f := newFixture(t, []entity.Promotion{promotion("A", "https://example.com/a")})
	f.rec.EXPECT().Record("A", entity.EventClick, gomock.Any()).Do(
		func(_ string, _ entity.EventType, meta entity.EventMetadata) {
			if meta.TargetURL != "https://example.com/a" {
				t.Errorf("unexpected click target %q", meta.TargetURL)
			}
		}).Times(1)
	f.rec.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	sess := f.open(t, `{"page":"/blog"}`)
	if sess.SessionID == "" || sess.VisitorID == "" || sess.Returning || sess.Page != "/blog" {
		t.Fatalf("unexpected session %+v", sess)
	}

	f.clk.Advance(2 * time.Second)

	rr := f.do(t, http.MethodGet, "/sessions/"+sess.SessionID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("state: status %d", rr.Code)
	}
	var state sessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.State == nil || state.State.Phase != service.PhaseVisible || state.State.Promotion.ID != "A" {
		t.Fatalf("expected A visible, got %+v", state.State)
	}

	rr = f.do(t, http.MethodPost, "/sessions/"+sess.SessionID+"/click", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("click: status %d body %s", rr.Code, rr.Body.String())
	}
	var act actionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &act); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !act.Applied || act.State.Phase != service.PhaseCooldown {
		t.Fatalf("unexpected click response %+v", act)
	}

	if rr := f.do(t, http.MethodPost, "/sessions/"+sess.SessionID+"/click", ""); rr.Code != http.StatusConflict {
		t.Fatalf("second click: expected 409, got %d", rr.Code)
	}

	rr = f.do(t, http.MethodPost, "/sessions/"+sess.SessionID+"/next", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("next: status %d", rr.Code)
	}
	act = actionResponse{}
	_ = json.Unmarshal(rr.Body.Bytes(), &act)
	if act.Applied {
		t.Fatalf("next must not apply while hidden")
	}

	if rr := f.do(t, http.MethodDelete, "/sessions/"+sess.SessionID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/sessions/"+sess.SessionID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestReturningVisitor(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.open(t, `{"visitorId":"v-42"}`)
	if !sess.Returning || sess.VisitorID != "v-42" || sess.Page != "/" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestClickNavigationFailure(t *testing.T) {
	f := newFixture(t, []entity.Promotion{promotion("A", "javascript:alert(1)")})
	f.rec.EXPECT().Record("A", entity.EventView, gomock.Any()).Times(1)

	sess := f.open(t, `{"page":"/"}`)
	f.clk.Advance(2 * time.Second)

	rr := f.do(t, http.MethodPost, "/sessions/"+sess.SessionID+"/click", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestScrollValidation(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.open(t, `{"page":"/"}`)

	if rr := f.do(t, http.MethodPost, "/sessions/"+sess.SessionID+"/scroll", `{"percent":150}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if rr := f.do(t, http.MethodPost, "/sessions/"+sess.SessionID+"/scroll", `{"pct":10}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: expected 400, got %d", rr.Code)
	}
	rr := f.do(t, http.MethodPost, "/sessions/"+sess.SessionID+"/scroll", `{"percent":50}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var act actionResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &act)
	if act.Applied || act.State.Phase != service.PhaseIdle {
		t.Fatalf("empty pool must stay idle, got %+v", act)
	}
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t, nil)
	for _, path := range []string{"/sessions/nope", "/sessions/nope/stream"} {
		if rr := f.do(t, http.MethodGet, path, ""); rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rr.Code)
		}
	}
	if rr := f.do(t, http.MethodPost, "/sessions/nope/close", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("close: expected 404, got %d", rr.Code)
	}
	if rr := f.do(t, http.MethodDelete, "/sessions/nope", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("delete: expected 404, got %d", rr.Code)
	}
}

func TestStream(t *testing.T) {
	f := newFixture(t, []entity.Promotion{promotion("A", "https://example.com/a")})
	f.rec.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	sess := f.open(t, `{"page":"/"}`)
	resp, err := http.Get(ts.URL + "/sessions/" + sess.SessionID + "/stream")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	events := make(chan [2]string, 8)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		var name string
		for sc.Scan() {
			line := sc.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				events <- [2]string{name, strings.TrimPrefix(line, "data: ")}
			}
		}
	}()

	next := func() (string, service.Update) {
		t.Helper()
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("stream ended early")
			}
			var u service.Update
			_ = json.Unmarshal([]byte(ev[1]), &u)
			return ev[0], u
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for event")
		}
		return "", service.Update{}
	}

	if name, u := next(); name != "state" || u.State.Phase != service.PhaseAwaitingTrigger {
		t.Fatalf("unexpected initial event %s %+v", name, u)
	}

	f.clk.Advance(2 * time.Second)
	if name, u := next(); name != "state" || u.State.Phase != service.PhaseVisible || !u.State.Opaque {
		t.Fatalf("unexpected event %s %+v", name, u)
	}

	if err := f.sessions.Close(context.Background(), sess.SessionID); err != nil {
		t.Fatalf("close: %v", err)
	}
	for {
		name, _ := next()
		if name == "end" {
			return
		}
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil)
	from := time.Date(2025, 10, 19, 10, 0, 0, 0, time.UTC)
	to := time.Date(2025, 10, 19, 11, 0, 0, 0, time.UTC)

	f.stats.EXPECT().QueryTotals(gomock.Any(), "promo-1", from, to).
		Return(entity.PromotionStats{TotalViews: 4, TotalClicks: 1}.WithCTR(), nil)
	f.stats.EXPECT().QueryRange(gomock.Any(), "promo-1", entity.EventView, from, to).
		Return([]entity.Point{{TS: from, V: 4}}, nil)
	f.stats.EXPECT().QueryRange(gomock.Any(), "promo-1", entity.EventClick, from, to).
		Return([]entity.Point{{TS: from, V: 1}}, nil)

	rr := f.do(t, http.MethodPost, "/stats/promo-1", `{"from":"2025-10-19T10:00:30Z","to":"2025-10-19T11:00:00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("stats: status %d body %s", rr.Code, rr.Body.String())
	}
	var out entity.StatsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Totals.ClickThroughRate != 0.25 || len(out.Views) != 1 || out.Clicks[0].V != 1 {
		t.Fatalf("unexpected stats %+v", out)
	}
}

func TestStatsValidation(t *testing.T) {
	f := newFixture(t, nil)
	cases := map[string]string{
		"bad json":   `{`,
		"bad from":   `{"from":"yesterday","to":"2025-10-19T11:00:00Z"}`,
		"reversed":   `{"from":"2025-10-19T11:00:00Z","to":"2025-10-19T10:00:00Z"}`,
		"too large":  `{"from":"2025-01-01T00:00:00Z","to":"2025-10-19T10:00:00Z"}`,
		"unknown fi": `{"from":"2025-10-19T10:00:00Z","to":"2025-10-19T11:00:00Z","x":1}`,
	}
	for name, body := range cases {
		if rr := f.do(t, http.MethodPost, "/stats/promo-1", body); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rr.Code)
		}
	}
}

func TestStatsStoreError(t *testing.T) {
	f := newFixture(t, nil)
	f.stats.EXPECT().QueryTotals(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(entity.PromotionStats{}, errors.New("db down"))

	rr := f.do(t, http.MethodPost, "/stats/promo-1", `{"from":"2025-10-19T10:00:00Z","to":"2025-10-19T11:00:00Z"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestAnnounce(t *testing.T) {
	announced := 0
	srv := NewServer(zap.NewNop(), nil, nil, Options{Announce: func(context.Context) error {
		announced++
		return nil
	}})
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/promotions/changed", nil))
	if rr.Code != http.StatusAccepted || announced != 1 {
		t.Fatalf("announce: status %d calls %d", rr.Code, announced)
	}

	plain := NewServer(zap.NewNop(), nil, nil, Options{})
	rr = httptest.NewRecorder()
	plain.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/promotions/changed", nil))
	if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("announce route must be absent, got %d", rr.Code)
	}
}

func TestShutdownEndsOpenStreams(t *testing.T) {
	f := newFixture(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	served := make(chan error, 1)
	go func() { served <- f.srv.Serve(ln) }()

	sess := f.open(t, `{"page":"/"}`)
	resp, err := http.Get("http://" + ln.Addr().String() + "/sessions/" + sess.SessionID + "/stream")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()

	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	if first := <-lines; first != "event: state" {
		t.Fatalf("unexpected first line %q", first)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := f.srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown with an open stream: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("shutdown waited on the stream for %v", elapsed)
	}
	if ctx.Err() != nil {
		t.Fatalf("shutdown consumed the deadline")
	}

	ended := false
	for line := range lines {
		if line == "event: end" {
			ended = true
		}
	}
	if !ended {
		t.Fatalf("stream closed without an end event")
	}
	if err := <-served; !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("serve: %v", err)
	}
}
