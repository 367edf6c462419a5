package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/adapter/store/memory"
	"github.com/dayanaadylkhanova/promo-rotator/internal/adapter/store/postgres"
	redisstore "github.com/dayanaadylkhanova/promo-rotator/internal/adapter/store/redis"
	http_server "github.com/dayanaadylkhanova/promo-rotator/internal/adapter/transport/http"
	"github.com/dayanaadylkhanova/promo-rotator/internal/service"
	"github.com/dayanaadylkhanova/promo-rotator/pkg/clock"
	"github.com/dayanaadylkhanova/promo-rotator/pkg/config"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type AppInfo struct {
	Name      string
	BuildTime string
	Commit    string
	Release   string
}

// ChangeFeed delivers promotion change notifications until ctx is done or
// the underlying connection fails.
type ChangeFeed interface {
	Listen(ctx context.Context, notify func()) error
}

type App struct {
	cfg  config.Config
	info *AppInfo
	log  *zap.Logger

	store      *postgres.Store
	rdb        *goredis.Client
	aggregator *service.Aggregator
	recorder   *service.EngagementRecorder
	hub        *service.ChangeHub
	feed       ChangeFeed
	sessions   *service.SessionManager
	server     *http_server.Server
	// stopSessions cancels the context every session controller runs under.
	stopSessions context.CancelFunc
	// retry is the pause before reconnecting the change feed.
	retry time.Duration
}

func New(cfg config.Config, info *AppInfo, log *zap.Logger) (*App, error) {
	ctx := context.Background()

	// 1) Store (Postgres)
	st, err := postgres.New(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx, cfg.FeedChannel); err != nil {
		st.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	// 2) Frequency caps: Redis when configured, process memory otherwise
	var caps service.CapBackend = memory.NewCapStore()
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisstore.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			st.Close()
			return nil, err
		}
		caps = redisstore.NewCapStore(rdb, cfg.SessionTTL)
	}

	// 3) Change feed
	var (
		feed     ChangeFeed
		announce func(ctx context.Context) error
	)
	switch cfg.FeedDriver {
	case config.FeedRedis:
		f := redisstore.NewFeed(rdb, cfg.FeedChannel, log)
		feed = f
		announce = func(ctx context.Context) error { return f.Publish(ctx, "announce") }
	default:
		feed = postgres.NewListener(st.Pool(), cfg.FeedChannel, log)
		announce = func(ctx context.Context) error { return st.Notify(ctx, cfg.FeedChannel, "announce") }
	}

	// 4) Engagement pipeline
	clk := clock.NewReal()
	agg := service.NewAggregator(log, st, cfg.Shards, cfg.FlushEvery)
	rec := service.NewEngagementRecorder(log, st, agg, clk)

	// 5) Sessions
	hub := service.NewChangeHub(log)
	sessionsCtx, stopSessions := context.WithCancel(context.Background())
	sessions := service.NewSessionManager(service.SessionDeps{
		Context:  sessionsCtx,
		Log:      log,
		Clock:    clk,
		Fetcher:  service.NewPromotionRepository(log, st, clk),
		Caps:     caps,
		Recorder: rec,
		Timings:  timings(cfg.Popup),
		Changes:  hub,
		IdleTTL:  cfg.SessionTTL,
	})

	// 6) HTTP server
	srv := http_server.NewServer(log, sessions, st, http_server.Options{
		Addr:     cfg.ListenAddr,
		MaxDays:  cfg.ReadMaxRangeDays,
		Announce: announce,
	})

	return &App{
		cfg:        cfg,
		info:       info,
		log:        log,
		store:      st,
		rdb:        rdb,
		aggregator: agg,
		recorder:   rec,
		hub:        hub,
		feed:       feed,
		sessions:   sessions,
		server:     srv,

		stopSessions: stopSessions,
		retry:        2 * time.Second,
	}, nil
}

func timings(p config.Popup) service.Timings {
	return service.Timings{
		InitialDelay:     p.InitialDelay,
		RotationInterval: p.RotationInterval,
		DisplayDuration:  p.DisplayDuration,
		DisplayBuffer:    p.DisplayBuffer,
		Transition:       p.Transition,
		Cooldown:         p.Cooldown,
		ScrollThreshold:  p.ScrollThreshold,
	}
}

func (a *App) Run(ctx context.Context) error {
	// Background workers: aggregate flush, idle session reaper, change feed
	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.aggregator.Run(bgCtx)
	go a.sessions.Run(bgCtx)
	go a.follow(bgCtx)

	// Start HTTP
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- a.server.Start() }()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ErrAppShutdownNormal
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server", zap.Error(err))
			runErr = ErrAppStartup
		} else {
			runErr = ErrAppShutdownNormal
		}
	}

	cancel()
	if err := a.shutdown(); err != nil {
		runErr = ErrAppShutdownWithError
	}
	return runErr
}

// shutdown closes sessions first so their event streams end, then drains the
// HTTP server. Pending engagement writes and the final aggregate flush get a
// fresh deadline of their own.
func (a *App) shutdown() error {
	var shutdownErr error

	sessionsCtx, cancelSessions := context.WithTimeout(context.Background(), a.cfg.ShutdownWait)
	a.sessions.CloseAll(sessionsCtx)
	cancelSessions()
	if a.stopSessions != nil {
		a.stopSessions()
	}

	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), a.cfg.ShutdownWait)
	if err := a.server.Shutdown(httpCtx); err != nil {
		a.log.Warn("http shutdown", zap.Error(err))
		shutdownErr = err
	}
	cancelHTTP()

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), a.cfg.ShutdownWait)
	defer cancelFlush()
	a.recorder.Wait(flushCtx)
	a.aggregator.Stop(flushCtx)

	if a.store != nil {
		a.store.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return shutdownErr
}

// follow keeps the change feed connected. Sessions refetch after every
// reconnect since notifications may have been missed while down.
func (a *App) follow(ctx context.Context) {
	for {
		err := a.feed.Listen(ctx, a.hub.Notify)
		if ctx.Err() != nil {
			return
		}
		a.log.Warn("change feed interrupted, reconnecting", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(a.retry):
		}
		a.hub.Notify()
	}
}
