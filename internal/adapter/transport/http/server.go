package http_server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Sessions is the part of service.SessionManager the transport needs.
type Sessions interface {
	Open(visitorID, page string) *service.Session
	Get(id string) (*service.Session, error)
	Close(ctx context.Context, id string) error
}

type Options struct {
	Addr    string
	MaxDays int
	// Heartbeat keeps idle streams open through proxies.
	Heartbeat time.Duration
	// Announce fans a promotion change out to every replica; nil disables
	// POST /promotions/changed.
	Announce func(ctx context.Context) error
}

type Server struct {
	log      *zap.Logger
	opts     Options
	sessions Sessions
	stats    service.StatsReaderPort
	router   chi.Router
	httpSrv  *http.Server

	// closing is closed when Shutdown starts so open streams end.
	closing   chan struct{}
	closeOnce sync.Once
}

func NewServer(log *zap.Logger, sessions Sessions, stats service.StatsReaderPort, opts Options) *Server {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}
	s := &Server{log: log, opts: opts, sessions: sessions, stats: stats, closing: make(chan struct{})}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(zapLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleOpen())
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleState())
			r.Delete("/", s.handleEnd())
			r.Get("/stream", s.handleStream())
			r.Post("/scroll", s.handleScroll())
			r.Post("/click", s.handleClick())
			r.Post("/close", s.handleAction(func(c *service.PopupController) bool { return c.Dismiss() }))
			r.Post("/next", s.handleAction(func(c *service.PopupController) bool { return c.Next() }))
			r.Post("/prev", s.handleAction(func(c *service.PopupController) bool { return c.Prev() }))
		})
	})
	r.Post("/stats/{promotionID}", s.handleStats())
	if opts.Announce != nil {
		r.Post("/promotions/changed", s.handleAnnounce())
	}

	s.router = r
	s.httpSrv = &http.Server{Addr: opts.Addr, Handler: r}
	s.httpSrv.RegisterOnShutdown(s.endStreams)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("http listen", zap.String("addr", ln.Addr().String()))
	return s.httpSrv.Serve(ln)
}

// Shutdown ends open event streams, then waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) endStreams() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func zapLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}

type openRequest struct {
	VisitorID string `json:"visitorId"`
	Page      string `json:"page"`
}

type scrollRequest struct {
	Percent float64 `json:"percent"`
}

type sessionResponse struct {
	entity.VisitorSession
	Page  string            `json:"page"`
	State *service.Snapshot `json:"state,omitempty"`
}

type actionResponse struct {
	Applied bool             `json:"applied"`
	State   service.Snapshot `json:"state"`
}

func (s *Server) handleOpen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openRequest
		if !decode(w, r, &req) {
			return
		}
		page := strings.TrimSpace(req.Page)
		if page == "" {
			page = "/"
		}
		sess := s.sessions.Open(strings.TrimSpace(req.VisitorID), page)
		writeJSON(w, http.StatusCreated, sessionResponse{VisitorSession: sess.VisitorSession, Page: sess.Page})
	}
}

func (s *Server) handleState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		snap := sess.Controller().Snapshot()
		writeJSON(w, http.StatusOK, sessionResponse{VisitorSession: sess.VisitorSession, Page: sess.Page, State: &snap})
	}
}

func (s *Server) handleEnd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.sessions.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
			s.fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleScroll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		var req scrollRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Percent < 0 || req.Percent > 100 {
			http.Error(w, "percent must be within [0, 100]", http.StatusBadRequest)
			return
		}
		c := sess.Controller()
		applied := c.Scroll(req.Percent)
		writeJSON(w, http.StatusOK, actionResponse{Applied: applied, State: c.Snapshot()})
	}
}

func (s *Server) handleClick() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		c := sess.Controller()
		if err := c.Click(sess); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, actionResponse{Applied: true, State: c.Snapshot()})
	}
}

func (s *Server) handleAction(act func(*service.PopupController) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		c := sess.Controller()
		applied := act(c)
		writeJSON(w, http.StatusOK, actionResponse{Applied: applied, State: c.Snapshot()})
	}
}

// handleStream pushes the current state, then every update as a server-sent
// event until the client goes away, the session closes or the server shuts
// down.
func (s *Server) handleStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		fl, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		updates, cancel := sess.Subscribe()
		defer cancel()

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		snap := sess.Controller().Snapshot()
		if err := writeEvent(w, service.Update{Type: service.UpdateState, State: &snap}); err != nil {
			return
		}
		fl.Flush()

		hb := time.NewTicker(s.opts.Heartbeat)
		defer hb.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-s.closing:
				_, _ = fmt.Fprint(w, "event: end\ndata: {}\n\n")
				fl.Flush()
				return
			case <-hb.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				fl.Flush()
			case u, ok := <-updates:
				if !ok {
					_, _ = fmt.Fprint(w, "event: end\ndata: {}\n\n")
					fl.Flush()
					return
				}
				if err := writeEvent(w, u); err != nil {
					s.log.Debug("stream write failed", zap.String("session_id", sess.SessionID), zap.Error(err))
					return
				}
				fl.Flush()
			}
		}
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "promotionID"))
		if id == "" {
			http.Error(w, "invalid promotionID", http.StatusBadRequest)
			return
		}

		var req entity.StatsRequest
		if !decode(w, r, &req) {
			return
		}

		from, err := parseISO(req.From)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		to, err := parseISO(req.To)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}
		if !to.After(from) {
			http.Error(w, "to must be after from", http.StatusBadRequest)
			return
		}

		if s.opts.MaxDays > 0 && to.Sub(from) > (time.Hour*24*time.Duration(s.opts.MaxDays)) {
			http.Error(w, "range too large", http.StatusBadRequest)
			return
		}

		from = from.Truncate(time.Minute).UTC()
		to = to.Truncate(time.Minute).UTC()

		totals, err := s.stats.QueryTotals(r.Context(), id, from, to)
		if err != nil {
			s.log.Error("query totals", zap.String("promotion_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		views, err := s.stats.QueryRange(r.Context(), id, entity.EventView, from, to)
		if err != nil {
			s.log.Error("query views", zap.String("promotion_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		clicks, err := s.stats.QueryRange(r.Context(), id, entity.EventClick, from, to)
		if err != nil {
			s.log.Error("query clicks", zap.String("promotion_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entity.StatsResponse{Totals: totals, Views: views, Clicks: clicks})
	}
}

func (s *Server) handleAnnounce() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.opts.Announce(r.Context()); err != nil {
			s.log.Error("announce promotion change", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNotVisible):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrNavigation):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.log.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEvent(w http.ResponseWriter, u service.Update) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", u.Type, raw)
	return err
}

func parseISO(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("bad time")
}
