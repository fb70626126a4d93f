package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds per-user state that outlives a single tracking day
type UserProfile struct {
	UserID              uuid.UUID `json:"user_id"`
	EnergyLevel         int       `json:"energy_level"`
	NorthStar           *string   `json:"north_star,omitempty"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	StreakDays          int       `json:"streak_days"`
	TotalTasksCompleted int       `json:"total_tasks_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// PlaceholderProfile synthesizes a minimal profile so callers are never
// left without one when the store is unreachable.
func PlaceholderProfile(userID uuid.UUID) *UserProfile {
	now := time.Now()
	return &UserProfile{
		UserID:      userID,
		EnergyLevel: 3,
		StreakDays:  0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
