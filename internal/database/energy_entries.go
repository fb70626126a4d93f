package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daysense/daysense-api/internal/models"
)

// EnergyEntryRepository handles the persisted energy timeline.
// The timeline is append-only: there is deliberately no update operation.
type EnergyEntryRepository struct {
	db *DB
}

// NewEnergyEntryRepository creates a new energy entry repository
func NewEnergyEntryRepository(db *DB) *EnergyEntryRepository {
	return &EnergyEntryRepository{db: db}
}

// Append inserts a new timeline entry
func (r *EnergyEntryRepository) Append(ctx context.Context, entry *models.EnergyEntry) error {
	query := `
		INSERT INTO energy_entries (id, user_id, ts, level, source, confidence)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Timestamp,
		entry.Level,
		entry.Source,
		entry.Confidence,
	)
	if err != nil {
		return fmt.Errorf("failed to append energy entry: %w", err)
	}

	return nil
}

// GetTimelineForDay retrieves the entries for a user on the given day,
// ordered by timestamp.
func (r *EnergyEntryRepository) GetTimelineForDay(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.EnergyEntry, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	query := `
		SELECT id, user_id, ts, level, source, confidence
		FROM energy_entries
		WHERE user_id = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query energy timeline: %w", err)
	}
	defer rows.Close()

	var entries []models.EnergyEntry
	for rows.Next() {
		var entry models.EnergyEntry
		var confidence sql.NullInt64
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Timestamp,
			&entry.Level,
			&entry.Source,
			&confidence,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan energy entry: %w", err)
		}
		if confidence.Valid {
			c := int(confidence.Int64)
			entry.Confidence = &c
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating energy entries: %w", err)
	}

	return entries, nil
}

// LatestLevel returns the most recent entry's level for dedup checks,
// or sql.ErrNoRows when the timeline is empty.
func (r *EnergyEntryRepository) LatestLevel(ctx context.Context, userID uuid.UUID) (int, error) {
	var level int
	err := r.db.QueryRowContext(ctx, `
		SELECT level FROM energy_entries
		WHERE user_id = $1
		ORDER BY ts DESC
		LIMIT 1
	`, userID).Scan(&level)
	if err != nil {
		return 0, err
	}
	return level, nil
}
