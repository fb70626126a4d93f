package models

import (
	"time"

	"github.com/google/uuid"
)

// FlowScoreRecord is one day's computed flow score with its sub-scores.
// One conceptual record exists per user per calendar day.
type FlowScoreRecord struct {
	ID                   uuid.UUID `json:"id"`
	UserID               uuid.UUID `json:"user_id"`
	Date                 string    `json:"date"` // YYYY-MM-DD
	Score                int       `json:"score"`
	EnergyAlignment      int       `json:"energy_alignment"`
	CompletionEfficiency int       `json:"completion_efficiency"`
	FocusConsistency     int       `json:"focus_consistency"`
	CalculatedAt         time.Time `json:"calculated_at"`
}

// Reflection is a stored end-of-day narrative produced by the narration
// adapter (remote or fallback).
type Reflection struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	Date               string    `json:"date"`
	Summary            string    `json:"summary"`
	EnergyDrains       string    `json:"energy_drains"`
	EnergyBoosts       string    `json:"energy_boosts"`
	ReflectiveQuestion string    `json:"reflective_question"`
	TomorrowFocus      string    `json:"tomorrow_focus"`
	Generated          bool      `json:"generated"` // false when the local fallback produced it
	CreatedAt          time.Time `json:"created_at"`
}
