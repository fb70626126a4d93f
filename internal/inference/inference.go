// Package inference estimates a user's energy level from indirect
// behavioral signals using a deterministic additive scorer. No model calls,
// no randomness: the same snapshot always yields the same result.
package inference

import (
	"fmt"
	"math"
	"strings"

	"github.com/daysense/daysense-api/internal/models"
)

// Result is the outcome of one inference pass over a signal snapshot.
type Result struct {
	EnergyLevel   int    `json:"inferred_energy_level"` // 1-5
	Confidence    int    `json:"confidence_score"`      // 0-100
	SignalSummary string `json:"signal_summary"`
	UserMessage   string `json:"user_message"`
}

// Threshold constants for qualitative signal classification.
const (
	highSwitchingFreq = 10
	lowSwitchingFreq  = 3
	highIdleMinutes   = 15
	lowIdleMinutes    = 5
)

var energyDescriptors = [...]string{"", "very low", "low", "moderate", "high", "very high"}

// InferEnergy maps a behavioral snapshot to an inferred 1-5 energy level
// with a confidence percentage. Each signal adds fixed deltas to per-level
// accumulators; the highest accumulator wins, ties broken toward the lowest
// level. Confidence is the normalized gap between the top two accumulators
// and is 0 when nothing scored.
func InferEnergy(signals models.BehavioralSignals) Result {
	// Accumulators indexed by level; slot 0 unused.
	var scores [6]int

	switch signals.TimeOfDay {
	case models.TimeOfDayMorning:
		scores[4] += 15
		scores[5] += 10
		scores[1] += 5
	case models.TimeOfDayAfternoon:
		scores[3] += 20
		scores[2] += 15
	case models.TimeOfDayEvening:
		scores[2] += 15
		scores[3] += 10
	case models.TimeOfDayLateNight:
		scores[1] += 20
		scores[2] += 10
	}

	if signals.TaskSwitchingFreq > highSwitchingFreq {
		scores[1] += 15
		scores[2] += 10
	} else if signals.TaskSwitchingFreq < lowSwitchingFreq {
		scores[4] += 10
		scores[5] += 5
	}

	if signals.IdleTimeMinutes > highIdleMinutes {
		scores[1] += 10
		scores[2] += 15
	} else if signals.IdleTimeMinutes < lowIdleMinutes {
		scores[4] += 10
		scores[5] += 5
	}

	switch signals.CompletionSpeed {
	case models.CompletionSpeedSlower:
		scores[1] += 15
		scores[2] += 10
	case models.CompletionSpeedFaster:
		scores[4] += 15
		scores[5] += 10
	}

	if signals.LateNightUsage {
		scores[1] += 10
		scores[2] += 5
	}

	// First-max scan from level 1 upward so ties resolve to the lower level.
	level := 1
	top := scores[1]
	for i := 2; i <= 5; i++ {
		if scores[i] > top {
			top = scores[i]
			level = i
		}
	}

	second := 0
	for i := 1; i <= 5; i++ {
		if i == level {
			continue
		}
		if scores[i] > second {
			second = scores[i]
		}
	}

	confidence := 0
	if top > 0 {
		confidence = int(math.Round(float64(top-second) / float64(top) * 100))
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 100 {
			confidence = 100
		}
	}

	return Result{
		EnergyLevel:   level,
		Confidence:    confidence,
		SignalSummary: summarizeSignals(signals),
		UserMessage: fmt.Sprintf(
			"AI thinks your energy is %s (%d/5) based on your recent activity patterns.",
			energyDescriptors[level], level),
	}
}

func summarizeSignals(signals models.BehavioralSignals) string {
	var parts []string
	if signals.TaskSwitchingFreq > highSwitchingFreq {
		parts = append(parts, "high task switching")
	}
	if signals.IdleTimeMinutes > highIdleMinutes {
		parts = append(parts, "long idle periods")
	}
	if signals.CompletionSpeed == models.CompletionSpeedSlower {
		parts = append(parts, "slower completion")
	}
	if signals.LateNightUsage {
		parts = append(parts, "late-night usage")
	}
	if len(parts) == 0 {
		return "Based on general usage patterns"
	}
	return "Based on " + strings.Join(parts, ", ")
}
