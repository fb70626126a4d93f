package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daysense/daysense-api/internal/models"
)

// SignalSnapshotRepository stores the latest behavioral snapshot per user.
// One row per user; every sampling tick overwrites it.
type SignalSnapshotRepository struct {
	db *DB
}

// NewSignalSnapshotRepository creates a new signal snapshot repository
func NewSignalSnapshotRepository(db *DB) *SignalSnapshotRepository {
	return &SignalSnapshotRepository{db: db}
}

// Upsert replaces the user's snapshot with the one just sampled
func (r *SignalSnapshotRepository) Upsert(ctx context.Context, userID uuid.UUID, signals models.BehavioralSignals, sampledAt time.Time) error {
	query := `
		INSERT INTO signal_snapshots (user_id, time_of_day, task_switching_freq, idle_time_minutes, completion_speed, late_night_usage, sampled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			time_of_day = EXCLUDED.time_of_day,
			task_switching_freq = EXCLUDED.task_switching_freq,
			idle_time_minutes = EXCLUDED.idle_time_minutes,
			completion_speed = EXCLUDED.completion_speed,
			late_night_usage = EXCLUDED.late_night_usage,
			sampled_at = EXCLUDED.sampled_at
	`

	_, err := r.db.ExecContext(ctx, query,
		userID,
		signals.TimeOfDay,
		signals.TaskSwitchingFreq,
		signals.IdleTimeMinutes,
		signals.CompletionSpeed,
		signals.LateNightUsage,
		sampledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert signal snapshot: %w", err)
	}

	return nil
}

// GetLatest returns the user's current snapshot, or sql.ErrNoRows when no
// tick has sampled this user yet.
func (r *SignalSnapshotRepository) GetLatest(ctx context.Context, userID uuid.UUID) (*models.BehavioralSignals, error) {
	var signals models.BehavioralSignals
	err := r.db.QueryRowContext(ctx, `
		SELECT time_of_day, task_switching_freq, idle_time_minutes, completion_speed, late_night_usage
		FROM signal_snapshots
		WHERE user_id = $1
	`, userID).Scan(
		&signals.TimeOfDay,
		&signals.TaskSwitchingFreq,
		&signals.IdleTimeMinutes,
		&signals.CompletionSpeed,
		&signals.LateNightUsage,
	)
	if err != nil {
		return nil, err
	}
	return &signals, nil
}
