package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daysense/daysense-api/internal/models"
)

// ReflectionRepository handles stored end-of-day reflections
type ReflectionRepository struct {
	db *DB
}

// NewReflectionRepository creates a new reflection repository
func NewReflectionRepository(db *DB) *ReflectionRepository {
	return &ReflectionRepository{db: db}
}

// Upsert writes the reflection for (user, date). Regenerating a day's
// reflection replaces the earlier one.
func (r *ReflectionRepository) Upsert(ctx context.Context, reflection *models.Reflection) error {
	query := `
		INSERT INTO reflections (id, user_id, reflection_date, summary, energy_drains, energy_boosts, reflective_question, tomorrow_focus, generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, reflection_date) DO UPDATE SET
			summary = EXCLUDED.summary,
			energy_drains = EXCLUDED.energy_drains,
			energy_boosts = EXCLUDED.energy_boosts,
			reflective_question = EXCLUDED.reflective_question,
			tomorrow_focus = EXCLUDED.tomorrow_focus,
			generated = EXCLUDED.generated,
			created_at = EXCLUDED.created_at
	`

	_, err := r.db.ExecContext(ctx, query,
		reflection.ID,
		reflection.UserID,
		reflection.Date,
		reflection.Summary,
		reflection.EnergyDrains,
		reflection.EnergyBoosts,
		reflection.ReflectiveQuestion,
		reflection.TomorrowFocus,
		reflection.Generated,
		reflection.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reflection: %w", err)
	}

	return nil
}

// GetByDate retrieves a user's reflection for a specific day
func (r *ReflectionRepository) GetByDate(ctx context.Context, userID uuid.UUID, date string) (*models.Reflection, error) {
	reflection := &models.Reflection{}
	var reflectionDate time.Time

	query := `
		SELECT id, user_id, reflection_date, summary, energy_drains, energy_boosts, reflective_question, tomorrow_focus, generated, created_at
		FROM reflections
		WHERE user_id = $1 AND reflection_date = $2
	`

	err := r.db.QueryRowContext(ctx, query, userID, date).Scan(
		&reflection.ID,
		&reflection.UserID,
		&reflectionDate,
		&reflection.Summary,
		&reflection.EnergyDrains,
		&reflection.EnergyBoosts,
		&reflection.ReflectiveQuestion,
		&reflection.TomorrowFocus,
		&reflection.Generated,
		&reflection.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reflection not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reflection: %w", err)
	}

	reflection.Date = reflectionDate.Format("2006-01-02")
	return reflection, nil
}
