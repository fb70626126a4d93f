package models

import (
	"time"

	"github.com/google/uuid"
)

// EnergySource records how an energy entry was produced
type EnergySource string

const (
	// EnergySourceManual is an explicit user check-in
	EnergySourceManual EnergySource = "manual"
	// EnergySourceInferred comes from passive behavioral inference
	EnergySourceInferred EnergySource = "inferred"
)

// MinEnergyLevel and MaxEnergyLevel bound the subjective energy scale
const (
	MinEnergyLevel = 1
	MaxEnergyLevel = 5
)

// EnergyEntry is one point on the append-only daily energy timeline.
// Entries are never mutated in place; the timeline is ordered by timestamp.
type EnergyEntry struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	Timestamp  time.Time    `json:"timestamp"`
	Level      int          `json:"level"`
	Source     EnergySource `json:"source"`
	Confidence *int         `json:"confidence,omitempty"` // 0-100, inferred entries only
}

// EnergyState is the coarse three-bucket label derived from a 1-5 level
type EnergyState string

const (
	EnergyStateRecharge EnergyState = "recharge"
	EnergyStateFlow     EnergyState = "flow"
	EnergyStateFocus    EnergyState = "focus"
)

// EnergyStateFor maps an energy level to its state bucket.
// Total over all ints: levels at or below 2 recharge, 3 is flow, 4+ is focus.
func EnergyStateFor(level int) EnergyState {
	if level <= 2 {
		return EnergyStateRecharge
	}
	if level == 3 {
		return EnergyStateFlow
	}
	return EnergyStateFocus
}

// ClampEnergyLevel forces a level into the valid 1-5 range
func ClampEnergyLevel(level int) int {
	if level < MinEnergyLevel {
		return MinEnergyLevel
	}
	if level > MaxEnergyLevel {
		return MaxEnergyLevel
	}
	return level
}
