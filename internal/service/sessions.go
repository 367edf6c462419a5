package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/pkg/clock"
	"go.uber.org/zap"
)

type UpdateType string

const (
	UpdateState UpdateType = "state"
	UpdateOpen  UpdateType = "open"
)

// Update is pushed to the visitor's browser.
type Update struct {
	Type  UpdateType `json:"type"`
	State *Snapshot  `json:"state,omitempty"`
	URL   string     `json:"url,omitempty"`
}

type SessionDeps struct {
	// Context parents every session controller; cancelling it stops them all.
	Context  context.Context
	Log      *zap.Logger
	Clock    clock.Clock
	Fetcher  Fetcher
	Caps     CapBackend
	Recorder Recorder
	Timings  Timings
	Changes  *ChangeHub
	// IdleTTL closes sessions without input or open streams for this long.
	IdleTTL time.Duration
}

// Session is one visitor tab with its own PopupController.
type Session struct {
	entity.VisitorSession
	Page string

	log         *zap.Logger
	ctrl        *PopupController
	unsubscribe func()

	mu       sync.Mutex
	subs     map[uint64]chan Update
	nextSub  uint64
	lastSeen time.Time
	closed   bool
}

func (s *Session) Controller() *PopupController { return s.ctrl }

// Subscribe streams updates until the returned cancel func is called or the
// session closes.
func (s *Session) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 16)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.nextSub++
	id := s.nextSub
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Open validates a click-through link and asks the browser to open it.
func (s *Session) Open(link string) error {
	if err := validateLink(link); err != nil {
		return err
	}
	s.publish(Update{Type: UpdateOpen, URL: link})
	return nil
}

func (s *Session) publish(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			s.log.Warn("session stream full, update dropped", zap.String("type", string(u.Type)))
		}
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return 0
	}
	return now.Sub(s.lastSeen)
}

func (s *Session) shutdown() {
	s.ctrl.Stop()
	s.unsubscribe()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func validateLink(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("empty link")
	}
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid link %q: %w", link, err)
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("unsupported link scheme %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("link %q has no host", link)
		}
		return nil
	}
	if !strings.HasPrefix(link, "/") {
		return fmt.Errorf("relative link %q must start with /", link)
	}
	return nil
}

// SessionManager owns every live visitor session.
type SessionManager struct {
	deps     SessionDeps
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(deps SessionDeps) *SessionManager {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = 30 * time.Minute
	}
	return &SessionManager{deps: deps, sessions: make(map[string]*Session)}
}

// Open starts a session for the visitor and runs its first fetch.
func (m *SessionManager) Open(visitorID, page string) *Session {
	now := m.deps.Clock.Now()
	vs := entity.NewVisitorSession(visitorID, now)
	s := &Session{
		VisitorSession: vs,
		Page:           page,
		log:            m.deps.Log.With(zap.String("session_id", vs.SessionID)),
		subs:           make(map[uint64]chan Update),
		lastSeen:       now,
		unsubscribe:    func() {},
	}

	var changes <-chan struct{}
	if m.deps.Changes != nil {
		changes, s.unsubscribe = m.deps.Changes.Subscribe()
	}
	s.ctrl = NewPopupController(m.deps.Context, ControllerDeps{
		Log:      m.deps.Log,
		Clock:    m.deps.Clock,
		Fetcher:  m.deps.Fetcher,
		Caps:     NewFrequencyCapStore(m.deps.Log, m.deps.Caps, vs),
		Recorder: m.deps.Recorder,
		Session:  vs,
		Page:     page,
		Timings:  m.deps.Timings,
		Changes:  changes,
		OnChange: func(snap Snapshot) { s.publish(Update{Type: UpdateState, State: &snap}) },
	})

	m.mu.Lock()
	m.sessions[vs.SessionID] = s
	m.mu.Unlock()

	s.ctrl.Start()
	m.deps.Log.Info("session opened",
		zap.String("session_id", vs.SessionID),
		zap.String("visitor_id", vs.VisitorID),
		zap.Bool("returning", vs.Returning),
		zap.String("page", page))
	return s
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.deps.Clock.Now())
	return s, nil
}

// Close stops the session's controller and drops its session-scoped caps.
func (m *SessionManager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	m.end(ctx, s)
	return nil
}

func (m *SessionManager) end(ctx context.Context, s *Session) {
	s.shutdown()
	scope := entity.CapScope{Tier: entity.CapVolatile, Owner: s.SessionID}
	if err := m.deps.Caps.DropScope(ctx, scope); err != nil {
		m.deps.Log.Warn("drop session caps failed", zap.String("session_id", s.SessionID), zap.Error(err))
	}
	m.deps.Log.Info("session closed", zap.String("session_id", s.SessionID))
}

func (m *SessionManager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	for _, s := range all {
		m.end(ctx, s)
	}
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap closes sessions idle for longer than IdleTTL.
func (m *SessionManager) Reap(ctx context.Context) int {
	now := m.deps.Clock.Now()
	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.deps.IdleTTL {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range stale {
		m.end(ctx, s)
	}
	return len(stale)
}

func (m *SessionManager) Run(ctx context.Context) {
	every := m.deps.IdleTTL / 2
	if every > time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Reap(ctx); n > 0 {
				m.deps.Log.Info("idle sessions reaped", zap.Int("count", n))
			}
		}
	}
}
