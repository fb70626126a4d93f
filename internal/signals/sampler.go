// Package signals produces BehavioralSignals snapshots on a configurable
// interval. The scoring packages only see the Sampler interface, so the
// synthetic stand-in and the real activity-driven sampler are
// interchangeable.
package signals

import (
	"math/rand"
	"sync"
	"time"

	"github.com/daysense/daysense-api/internal/models"
)

// Sampler produces a fresh behavioral snapshot for the given instant.
type Sampler interface {
	Sample(now time.Time) models.BehavioralSignals
}

// lateNight matches the original check-in window: 22:00 through 05:59.
func lateNight(hour int) bool {
	return hour >= 22 || hour < 6
}

// SyntheticSampler synthesizes switch frequency, idle time and completion
// speed from a uniform random source. It is a stand-in for real telemetry;
// only the time-of-day fields reflect reality.
type SyntheticSampler struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// NewSyntheticSampler creates a sampler seeded from the given source.
// Pass a fixed-seed source in tests for reproducible snapshots.
func NewSyntheticSampler(src rand.Source) *SyntheticSampler {
	return &SyntheticSampler{rng: rand.New(src)}
}

// Sample produces a snapshot with random engagement values.
func (s *SyntheticSampler) Sample(now time.Time) models.BehavioralSignals {
	s.mu.Lock()
	defer s.mu.Unlock()

	speed := models.CompletionSpeedUsual
	if s.rng.Float64() > 0.5 {
		speed = models.CompletionSpeedFaster
	}

	hour := now.Hour()
	return models.BehavioralSignals{
		TimeOfDay:         models.TimeOfDayFor(hour),
		TaskSwitchingFreq: s.rng.Intn(15),
		IdleTimeMinutes:   s.rng.Intn(20),
		CompletionSpeed:   speed,
		LateNightUsage:    lateNight(hour),
	}
}

// Completion-latency classification bands: a task finished in under 70% of
// its estimate counts as faster than usual, over 130% as slower.
const (
	fasterRatio = 0.7
	slowerRatio = 1.3
)

// ActivitySampler derives signals from recorded user events: task switches,
// an idle clock, and completion latency against estimates. It replaces the
// synthetic stand-in wherever real instrumentation hooks exist.
type ActivitySampler struct {
	mu              sync.Mutex
	switchCount     int
	idleAccumulated time.Duration
	lastAction      time.Time
	lastSpeed       models.CompletionSpeed
	idleThreshold   time.Duration
}

// NewActivitySampler creates an event-driven sampler. idleThreshold is how
// long without activity counts as idle; the original used five minutes.
func NewActivitySampler(idleThreshold time.Duration) *ActivitySampler {
	if idleThreshold <= 0 {
		idleThreshold = 5 * time.Minute
	}
	return &ActivitySampler{
		lastAction:    time.Now(),
		lastSpeed:     models.CompletionSpeedUsual,
		idleThreshold: idleThreshold,
	}
}

// RecordAction marks user activity, closing out any idle stretch.
func (s *ActivitySampler) RecordAction(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gap := now.Sub(s.lastAction); gap > s.idleThreshold {
		s.idleAccumulated += gap
	}
	s.lastAction = now
}

// RecordTaskSwitch increments the switch counter.
func (s *ActivitySampler) RecordTaskSwitch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchCount++
}

// RecordCompletion classifies a completion against its estimate.
func (s *ActivitySampler) RecordCompletion(estimatedMinutes, actualMinutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	est := float64(estimatedMinutes)
	actual := float64(actualMinutes)
	switch {
	case est <= 0:
		s.lastSpeed = models.CompletionSpeedUsual
	case actual < est*fasterRatio:
		s.lastSpeed = models.CompletionSpeedFaster
	case actual > est*slowerRatio:
		s.lastSpeed = models.CompletionSpeedSlower
	default:
		s.lastSpeed = models.CompletionSpeedUsual
	}
}

// Sample snapshots the counters accumulated since the last call and resets
// the per-window state.
func (s *ActivitySampler) Sample(now time.Time) models.BehavioralSignals {
	s.mu.Lock()
	defer s.mu.Unlock()

	idle := s.idleAccumulated
	if gap := now.Sub(s.lastAction); gap > s.idleThreshold {
		idle += gap
	}

	hour := now.Hour()
	snapshot := models.BehavioralSignals{
		TimeOfDay:         models.TimeOfDayFor(hour),
		TaskSwitchingFreq: s.switchCount,
		IdleTimeMinutes:   int(idle.Minutes()),
		CompletionSpeed:   s.lastSpeed,
		LateNightUsage:    lateNight(hour),
	}

	s.switchCount = 0
	s.idleAccumulated = 0
	return snapshot
}
