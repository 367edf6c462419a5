package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	FeedPostgres = "postgres"
	FeedRedis    = "redis"
)

type Config struct {
	ListenAddr       string
	DatabaseURL      string
	LogLevel         string
	FlushEvery       time.Duration
	Shards           int
	MaxCPU           int
	ReadMaxRangeDays int
	ShutdownWait     time.Duration

	// RedisAddr switches frequency caps to Redis; empty keeps them in memory.
	RedisAddr   string
	FeedDriver  string
	FeedChannel string
	SessionTTL  time.Duration

	Popup Popup
}

// Popup holds the rotation timings.
type Popup struct {
	InitialDelay     time.Duration
	RotationInterval time.Duration
	DisplayDuration  time.Duration
	DisplayBuffer    time.Duration
	Transition       time.Duration
	Cooldown         time.Duration
	ScrollThreshold  float64
}

func Parse() (*Config, error) {
	var errs []error
	c := &Config{}
	c.ListenAddr = getenv("LISTEN_ADDR", ":3000")
	c.DatabaseURL = getenv("DATABASE_URL", "")
	c.LogLevel = getenv("LOG_LEVEL", "info")
	c.FlushEvery = mustDuration(getenv("FLUSH_EVERY", "1s"), time.Second)
	c.Shards = mustInt(getenv("SHARDS", "64"))
	c.MaxCPU = mustInt(getenv("MAX_CPU", "0"))
	c.ReadMaxRangeDays = mustInt(getenv("READ_MAX_RANGE_DAYS", "90"))
	c.ShutdownWait = mustDuration(getenv("SHUTDOWN_WAIT", "5s"), 5*time.Second)

	c.RedisAddr = strings.TrimSpace(getenv("REDIS_ADDR", ""))
	c.FeedDriver = strings.ToLower(getenv("FEED_DRIVER", FeedPostgres))
	c.FeedChannel = getenv("FEED_CHANNEL", "promotions_changed")
	c.SessionTTL = mustDuration(getenv("SESSION_TTL", "30m"), 30*time.Minute)

	c.Popup = Popup{
		InitialDelay:     mustDuration(getenv("POPUP_INITIAL_DELAY", "2s"), 2*time.Second),
		RotationInterval: mustDuration(getenv("POPUP_ROTATION_INTERVAL", "8s"), 8*time.Second),
		DisplayDuration:  mustDuration(getenv("POPUP_DISPLAY_DURATION", "15s"), 15*time.Second),
		DisplayBuffer:    mustDuration(getenv("POPUP_DISPLAY_BUFFER", "5s"), 5*time.Second),
		Transition:       mustDuration(getenv("POPUP_TRANSITION", "500ms"), 500*time.Millisecond),
		Cooldown:         mustDuration(getenv("POPUP_COOLDOWN", "30s"), 30*time.Second),
	}
	threshold, err := strconv.ParseFloat(getenv("POPUP_SCROLL_THRESHOLD", "30"), 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("POPUP_SCROLL_THRESHOLD must be a number"))
	}
	c.Popup.ScrollThreshold = threshold

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL is required"))
	}
	if c.Shards <= 0 {
		errs = append(errs, fmt.Errorf("SHARDS must be > 0"))
	}
	if c.ReadMaxRangeDays < 0 {
		errs = append(errs, fmt.Errorf("READ_MAX_RANGE_DAYS must be >= 0"))
	}
	switch c.FeedDriver {
	case FeedPostgres:
	case FeedRedis:
		if c.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("FEED_DRIVER=redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("FEED_DRIVER must be %s or %s", FeedPostgres, FeedRedis))
	}
	if c.FeedChannel == "" {
		errs = append(errs, fmt.Errorf("FEED_CHANNEL must not be empty"))
	}
	if c.Popup.ScrollThreshold < 0 || c.Popup.ScrollThreshold > 100 {
		errs = append(errs, fmt.Errorf("POPUP_SCROLL_THRESHOLD must be within [0, 100]"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustInt(s string) int { n, _ := strconv.Atoi(s); return n }

func mustDuration(s string, def time.Duration) time.Duration {
	d, _ := time.ParseDuration(s)
	if d <= 0 {
		return def
	}
	return d
}
