package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daysense/daysense-api/internal/models"
)

// ProfileRepository handles user profile database operations
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID retrieves a profile by user ID
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	var northStar sql.NullString

	query := `
		SELECT user_id, energy_level, north_star, onboarding_completed, streak_days, total_tasks_completed, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.EnergyLevel,
		&northStar,
		&profile.OnboardingCompleted,
		&profile.StreakDays,
		&profile.TotalTasksCompleted,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if northStar.Valid {
		profile.NorthStar = &northStar.String
	}

	return profile, nil
}

// Upsert creates or updates a profile
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO profiles (user_id, energy_level, north_star, onboarding_completed, streak_days, total_tasks_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			energy_level = EXCLUDED.energy_level,
			north_star = EXCLUDED.north_star,
			onboarding_completed = EXCLUDED.onboarding_completed,
			streak_days = EXCLUDED.streak_days,
			total_tasks_completed = EXCLUDED.total_tasks_completed,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		profile.UserID,
		profile.EnergyLevel,
		profile.NorthStar,
		profile.OnboardingCompleted,
		profile.StreakDays,
		profile.TotalTasksCompleted,
		now,
		now,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// SetEnergyLevel updates just the stored energy level
func (r *ProfileRepository) SetEnergyLevel(ctx context.Context, userID uuid.UUID, level int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET energy_level = $2, updated_at = $3 WHERE user_id = $1
	`, userID, level, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set energy level: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("profile not found")
	}
	return nil
}

// SetNorthStar updates the daily priority goal
func (r *ProfileRepository) SetNorthStar(ctx context.Context, userID uuid.UUID, northStar *string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET north_star = $2, updated_at = $3 WHERE user_id = $1
	`, userID, northStar, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set north star: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("profile not found")
	}
	return nil
}

// IncrementStreak bumps the streak counter after a completed reflection
func (r *ProfileRepository) IncrementStreak(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET streak_days = streak_days + 1, updated_at = $2 WHERE user_id = $1
	`, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment streak: %w", err)
	}
	return nil
}
