package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/streamagenda/internal/domain"
)

const (
	getScheduleSQL = `SELECT streamer_id, streams, last_updated, expires_at
FROM schedules WHERE streamer_id = $1`

	upsertScheduleSQL = `INSERT INTO schedules (streamer_id, streams, last_updated, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (streamer_id) DO UPDATE
SET streams = EXCLUDED.streams, last_updated = EXCLUDED.last_updated, expires_at = EXCLUDED.expires_at`

	deleteScheduleSQL = `DELETE FROM schedules WHERE streamer_id = $1`

	purgeSchedulesSQL = `DELETE FROM schedules WHERE expires_at < $1`
)

// ScheduleRepo stores one row per creator with the streams embedded as JSONB.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

var _ domain.ScheduleCache = (*ScheduleRepo)(nil)

func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// Get returns nil, nil when the creator has no stored record.
func (r *ScheduleRepo) Get(ctx context.Context, streamerID string) (*domain.Schedule, error) {
	var (
		s       domain.Schedule
		streams []byte
	)
	err := r.pool.QueryRow(ctx, getScheduleSQL, streamerID).Scan(&s.StreamerID, &streams, &s.LastUpdated, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	if err := json.Unmarshal(streams, &s.Streams); err != nil {
		return nil, fmt.Errorf("failed to decode streams for %s: %w", streamerID, err)
	}
	if s.Streams == nil {
		s.Streams = []domain.Stream{}
	}
	return &s, nil
}

// Put replaces the whole record in a single statement.
func (r *ScheduleRepo) Put(ctx context.Context, streamerID string, s domain.Schedule) error {
	streams := s.Streams
	if streams == nil {
		streams = []domain.Stream{}
	}
	encoded, err := json.Marshal(streams)
	if err != nil {
		return fmt.Errorf("failed to encode streams: %w", err)
	}

	if _, err := r.pool.Exec(ctx, upsertScheduleSQL, streamerID, encoded, s.LastUpdated, s.ExpiresAt); err != nil {
		return fmt.Errorf("failed to put schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepo) Delete(ctx context.Context, streamerID string) error {
	if _, err := r.pool.Exec(ctx, deleteScheduleSQL, streamerID); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

// PurgeExpiredBefore drops records that expired before cutoff and reports how many.
func (r *ScheduleRepo) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, purgeSchedulesSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge schedules: %w", err)
	}
	return tag.RowsAffected(), nil
}
