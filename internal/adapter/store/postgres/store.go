package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dayanaadylkhanova/promo-rotator/internal/entity"
	"github.com/dayanaadylkhanova/promo-rotator/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, log: log}, nil
}

// Init creates the schema and the trigger that publishes promotion changes
// on notifyChannel.
func (s *Store) Init(ctx context.Context, notifyChannel string) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS promotions (
	id            TEXT        PRIMARY KEY,
	title         TEXT        NOT NULL,
	message       TEXT        NOT NULL DEFAULT '',
	button_text   TEXT        NOT NULL DEFAULT '',
	button_link   TEXT        NOT NULL DEFAULT '',
	image_url     TEXT,
	is_active     BOOLEAN     NOT NULL DEFAULT TRUE,
	display_rules JSONB       NOT NULL DEFAULT '{}'::jsonb,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_promotions_active_created ON promotions (is_active, created_at DESC);

CREATE TABLE IF NOT EXISTS promotion_events (
	id           TEXT        PRIMARY KEY,
	promotion_id TEXT        NOT NULL,
	event        TEXT        NOT NULL,
	session_id   TEXT        NOT NULL,
	visitor_id   TEXT        NOT NULL,
	page         TEXT        NOT NULL,
	metadata     JSONB       NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_promotion_events_pid_ts ON promotion_events (promotion_id, created_at);

CREATE TABLE IF NOT EXISTS promotion_stats (
	promotion_id TEXT        NOT NULL,
	event        TEXT        NOT NULL,
	ts           TIMESTAMPTZ NOT NULL,
	cnt          BIGINT      NOT NULL,
	PRIMARY KEY (promotion_id, event, ts)
);

CREATE OR REPLACE FUNCTION notify_promotions_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%s', TG_OP);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS promotions_changed ON promotions;
CREATE TRIGGER promotions_changed
	AFTER INSERT OR UPDATE OR DELETE ON promotions
	FOR EACH STATEMENT EXECUTE FUNCTION notify_promotions_changed();
`
	_, err := s.pool.Exec(ctx, fmt.Sprintf(ddl, strings.ReplaceAll(notifyChannel, "'", "''")))
	return err
}

// ListActivePromotions implements service.PromotionSource
func (s *Store) ListActivePromotions(ctx context.Context) ([]entity.Promotion, error) {
	const q = `
SELECT id, title, message, button_text, button_link, image_url, is_active, display_rules, created_at
FROM promotions WHERE is_active = TRUE ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.Promotion
	for rows.Next() {
		var p entity.Promotion
		var rules []byte
		if err := rows.Scan(&p.ID, &p.Title, &p.Message, &p.ButtonText, &p.ButtonLink,
			&p.ImageURL, &p.IsActive, &rules, &p.CreatedAt); err != nil {
			return nil, err
		}
		if len(rules) > 0 {
			if err := json.Unmarshal(rules, &p.DisplayRules); err != nil {
				s.log.Warn("skip promotion with malformed display rules", zap.String("promotion_id", p.ID), zap.Error(err))
				continue
			}
		}
		p.CreatedAt = p.CreatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertEvent implements service.EventWriter
func (s *Store) InsertEvent(ctx context.Context, ev entity.EngagementEvent) error {
	meta, err := json.Marshal(ev.Metadata)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO promotion_events (id, promotion_id, event, session_id, visitor_id, page, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO NOTHING`
	_, err = s.pool.Exec(ctx, q, ev.ID, ev.PromotionID, string(ev.Type),
		ev.Metadata.SessionID, ev.Metadata.VisitorID, ev.Metadata.Page, meta, ev.Metadata.Timestamp)
	return err
}

// UpsertAggregates implements service.AggregateWriter
func (s *Store) UpsertAggregates(ctx context.Context, rows []service.AggregateRow) error {
	if len(rows) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO promotion_stats (promotion_id, event, ts, cnt) VALUES ")
	args := make([]any, 0, len(rows)*4)
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		o := i*4 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d)", o, o+1, o+2, o+3)
		args = append(args, r.PromotionID, string(r.Event), r.TS, r.Cnt)
	}
	sb.WriteString(" ON CONFLICT (promotion_id, event, ts) DO UPDATE SET cnt = promotion_stats.cnt + EXCLUDED.cnt")
	_, err := s.pool.Exec(ctx, sb.String(), args...)
	return err
}

// QueryRange implements service.StatsReaderPort
func (s *Store) QueryRange(ctx context.Context, promotionID string, event entity.EventType, from, to time.Time) ([]entity.Point, error) {
	const q = `SELECT ts, cnt FROM promotion_stats WHERE promotion_id=$1 AND event=$2 AND ts >= $3 AND ts < $4 ORDER BY ts`
	rows, err := s.pool.Query(ctx, q, promotionID, string(event), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.Point
	for rows.Next() {
		var ts time.Time
		var cnt int64
		if err := rows.Scan(&ts, &cnt); err != nil {
			return nil, err
		}
		out = append(out, entity.Point{TS: ts.UTC(), V: cnt})
	}
	return out, rows.Err()
}

// QueryTotals implements service.StatsReaderPort
func (s *Store) QueryTotals(ctx context.Context, promotionID string, from, to time.Time) (entity.PromotionStats, error) {
	const totals = `
SELECT
	COALESCE(SUM(cnt) FILTER (WHERE event = 'view'), 0)::BIGINT,
	COALESCE(SUM(cnt) FILTER (WHERE event = 'click'), 0)::BIGINT,
	COALESCE(SUM(cnt) FILTER (WHERE event = 'close'), 0)::BIGINT
FROM promotion_stats WHERE promotion_id=$1 AND ts >= $2 AND ts < $3`
	const uniques = `
SELECT
	COUNT(DISTINCT visitor_id) FILTER (WHERE event = 'view'),
	COUNT(DISTINCT visitor_id) FILTER (WHERE event = 'click')
FROM promotion_events WHERE promotion_id=$1 AND created_at >= $2 AND created_at < $3`

	var st entity.PromotionStats
	if err := s.pool.QueryRow(ctx, totals, promotionID, from, to).
		Scan(&st.TotalViews, &st.TotalClicks, &st.TotalCloses); err != nil {
		return entity.PromotionStats{}, fmt.Errorf("query totals: %w", err)
	}
	if err := s.pool.QueryRow(ctx, uniques, promotionID, from, to).
		Scan(&st.UniqueViews, &st.UniqueClicks); err != nil {
		return entity.PromotionStats{}, fmt.Errorf("query uniques: %w", err)
	}
	return st.WithCTR(), nil
}

// Notify publishes payload on channel.
func (s *Store) Notify(ctx context.Context, channel, payload string) error {
	_, err := s.pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, payload)
	return err
}

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Close() { s.pool.Close() }

var (
	_ service.PromotionSource = (*Store)(nil)
	_ service.EventWriter     = (*Store)(nil)
	_ service.AggregateWriter = (*Store)(nil)
	_ service.StatsReaderPort = (*Store)(nil)
)
