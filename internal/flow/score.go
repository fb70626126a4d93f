// Package flow computes the daily Flow Score: a weighted composite of
// energy-task alignment, completion efficiency, and focus consistency.
// All functions are pure; callers own state and persistence.
package flow

import (
	"math"

	"github.com/daysense/daysense-api/internal/models"
)

const (
	// NeutralScore is returned when a sub-score has no data to work with
	NeutralScore = 50

	// Composite weights. They must sum to 1.
	AlignmentWeight  = 0.4
	EfficiencyWeight = 0.3
	FocusWeight      = 0.3

	// DefaultEnergyCost substitutes for tasks created without a cost
	DefaultEnergyCost = 3

	switchingPenaltyThreshold = 10
	switchingPenaltyPerUnit   = 5
	idlePenaltyThreshold      = 15
	idlePenaltyPerMinute      = 2
	idlePenaltyCap            = 30
	lateNightPenalty          = 10
)

// Scores holds the three sub-scores and their weighted composite,
// all in [0,100].
type Scores struct {
	Composite            int `json:"composite"`
	EnergyAlignment      int `json:"energy_alignment"`
	CompletionEfficiency int `json:"completion_efficiency"`
	FocusConsistency     int `json:"focus_consistency"`
}

// Calculate computes all sub-scores and the composite from the current day's
// state. signals may be nil when no sampling tick has run yet.
func Calculate(timeline []models.EnergyEntry, completed, pending []*models.Task, signals *models.BehavioralSignals) Scores {
	a := EnergyTaskAlignment(timeline, completed)
	e := CompletionEfficiency(completed, pending)
	f := FocusConsistency(signals)
	return Scores{
		Composite:            Composite(a, e, f),
		EnergyAlignment:      a,
		CompletionEfficiency: e,
		FocusConsistency:     f,
	}
}

// Composite combines sub-scores with the 0.4/0.3/0.3 weighting and rounds.
func Composite(alignment, efficiency, focus int) int {
	return int(math.Round(AlignmentWeight*float64(alignment) +
		EfficiencyWeight*float64(efficiency) +
		FocusWeight*float64(focus)))
}

// EnergyTaskAlignment scores how well completed tasks matched the energy
// timeline. Each completed task earns full credit when any timeline entry
// sits within distance 1 of the task's energy cost, otherwise partial credit
// decaying with the distance to the closest entry. With no timeline entries
// or no completed tasks there is nothing to align, so the score is neutral.
func EnergyTaskAlignment(timeline []models.EnergyEntry, completed []*models.Task) int {
	if len(timeline) == 0 || len(completed) == 0 {
		return NeutralScore
	}

	var total float64
	for _, task := range completed {
		cost := task.EnergyCost
		if cost == 0 {
			cost = DefaultEnergyCost
		}

		closest := math.Inf(1)
		for _, entry := range timeline {
			d := math.Abs(float64(entry.Level - cost))
			if d < closest {
				closest = d
			}
		}

		if closest <= 1 {
			total += 1.0
		} else {
			total += math.Max(0, 1-closest/3)
		}
	}

	ratio := total / float64(len(completed))
	return int(math.Round(ratio * 100))
}

// CompletionEfficiency is the priority-weighted share of tasks completed.
// With no tasks at all the day has no data yet, so the score is neutral.
func CompletionEfficiency(completed, pending []*models.Task) int {
	if len(completed)+len(pending) == 0 {
		return NeutralScore
	}

	var done, total float64
	for _, task := range completed {
		w := task.Priority.Weight()
		done += w
		total += w
	}
	for _, task := range pending {
		total += task.Priority.Weight()
	}

	return int(math.Round(done / total * 100))
}

// FocusConsistency starts at 100 and deducts for heavy task switching,
// long idle stretches, and late-night usage, clamped to [0,100].
// A nil snapshot means no sampling has happened yet and scores neutral.
func FocusConsistency(signals *models.BehavioralSignals) int {
	if signals == nil {
		return NeutralScore
	}

	score := 100
	if signals.TaskSwitchingFreq > switchingPenaltyThreshold {
		score -= (signals.TaskSwitchingFreq - switchingPenaltyThreshold) * switchingPenaltyPerUnit
	}
	if signals.IdleTimeMinutes > idlePenaltyThreshold {
		penalty := (signals.IdleTimeMinutes - idlePenaltyThreshold) * idlePenaltyPerMinute
		if penalty > idlePenaltyCap {
			penalty = idlePenaltyCap
		}
		score -= penalty
	}
	if signals.LateNightUsage {
		score -= lateNightPenalty
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// WeeklyAverage is the rounded mean composite of the most recent records,
// windowed to the last seven. Returns 0 when the history is empty.
func WeeklyAverage(history []models.FlowScoreRecord) int {
	if len(history) == 0 {
		return 0
	}
	window := history
	if len(window) > 7 {
		window = window[len(window)-7:]
	}
	sum := 0
	for _, rec := range window {
		sum += rec.Score
	}
	return int(math.Round(float64(sum) / float64(len(window))))
}
