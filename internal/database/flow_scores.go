package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daysense/daysense-api/internal/models"
)

// FlowScoreRepository handles persisted daily flow score records
type FlowScoreRepository struct {
	db *DB
}

// NewFlowScoreRepository creates a new flow score repository
func NewFlowScoreRepository(db *DB) *FlowScoreRepository {
	return &FlowScoreRepository{db: db}
}

// Upsert writes the record for (user, date), replacing any earlier
// calculation for the same day.
func (r *FlowScoreRepository) Upsert(ctx context.Context, record *models.FlowScoreRecord) error {
	query := `
		INSERT INTO flow_scores (id, user_id, score_date, score, energy_alignment, completion_efficiency, focus_consistency, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, score_date) DO UPDATE SET
			score = EXCLUDED.score,
			energy_alignment = EXCLUDED.energy_alignment,
			completion_efficiency = EXCLUDED.completion_efficiency,
			focus_consistency = EXCLUDED.focus_consistency,
			calculated_at = EXCLUDED.calculated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.Date,
		record.Score,
		record.EnergyAlignment,
		record.CompletionEfficiency,
		record.FocusConsistency,
		record.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert flow score: %w", err)
	}

	return nil
}

// GetByDate retrieves the record for a specific day
func (r *FlowScoreRepository) GetByDate(ctx context.Context, userID uuid.UUID, date string) (*models.FlowScoreRecord, error) {
	record := &models.FlowScoreRecord{}
	var scoreDate time.Time

	query := `
		SELECT id, user_id, score_date, score, energy_alignment, completion_efficiency, focus_consistency, calculated_at
		FROM flow_scores
		WHERE user_id = $1 AND score_date = $2
	`

	err := r.db.QueryRowContext(ctx, query, userID, date).Scan(
		&record.ID,
		&record.UserID,
		&scoreDate,
		&record.Score,
		&record.EnergyAlignment,
		&record.CompletionEfficiency,
		&record.FocusConsistency,
		&record.CalculatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("flow score not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flow score: %w", err)
	}

	record.Date = scoreDate.Format("2006-01-02")
	return record, nil
}

// GetRecent retrieves up to limit records for a user, newest first
func (r *FlowScoreRepository) GetRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.FlowScoreRecord, error) {
	query := `
		SELECT id, user_id, score_date, score, energy_alignment, completion_efficiency, focus_consistency, calculated_at
		FROM flow_scores
		WHERE user_id = $1
		ORDER BY score_date DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow scores: %w", err)
	}
	defer rows.Close()

	var records []models.FlowScoreRecord
	for rows.Next() {
		var record models.FlowScoreRecord
		var scoreDate time.Time
		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&scoreDate,
			&record.Score,
			&record.EnergyAlignment,
			&record.CompletionEfficiency,
			&record.FocusConsistency,
			&record.CalculatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow score: %w", err)
		}
		record.Date = scoreDate.Format("2006-01-02")
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flow scores: %w", err)
	}

	return records, nil
}
