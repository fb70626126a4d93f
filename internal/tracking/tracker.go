// Package tracking owns the per-day aggregate: the append-only energy
// timeline, task snapshots, the latest behavioral signals, and the scores
// derived from them. State lives here explicitly instead of in ambient
// globals so the scoring functions stay pure and testable.
package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daysense/daysense-api/internal/flow"
	"github.com/daysense/daysense-api/internal/inference"
	"github.com/daysense/daysense-api/internal/models"
	"github.com/daysense/daysense-api/internal/optimistic"
)

// ErrCalculationFailed is surfaced when score recomputation cannot run.
// The previous score is retained in that case.
var ErrCalculationFailed = errors.New("failed to calculate flow score")

// DayTracker accumulates one tracking day for one user and recomputes the
// flow score whenever an input changes. Safe for concurrent use by handler
// goroutines and sampling timers.
type DayTracker struct {
	mu sync.RWMutex

	userID    uuid.UUID
	timeline  []models.EnergyEntry
	completed []*models.Task
	pending   []*models.Task
	signals   *models.BehavioralSignals

	scores  *flow.Scores
	history []models.FlowScoreRecord
	logger  *zap.Logger
}

// NewDayTracker creates an empty tracker for the user.
func NewDayTracker(userID uuid.UUID, logger *zap.Logger) *DayTracker {
	return &DayTracker{userID: userID, logger: logger}
}

// AppendManualEnergy records an explicit user check-in on the timeline.
func (t *DayTracker) AppendManualEnergy(level int, now time.Time) models.EnergyEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := models.EnergyEntry{
		ID:        uuid.New(),
		UserID:    t.userID,
		Timestamp: now,
		Level:     models.ClampEnergyLevel(level),
		Source:    models.EnergySourceManual,
	}
	t.timeline = append(t.timeline, entry)
	t.recomputeLocked()
	return entry
}

// AppendInferredEnergy records a passive inference result, deduplicated
// against the immediately preceding entry's level. Returns false when the
// entry was suppressed as a duplicate.
func (t *DayTracker) AppendInferredEnergy(result inference.Result, now time.Time) (models.EnergyEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.timeline); n > 0 && t.timeline[n-1].Level == result.EnergyLevel {
		return models.EnergyEntry{}, false
	}

	confidence := result.Confidence
	entry := models.EnergyEntry{
		ID:         uuid.New(),
		UserID:     t.userID,
		Timestamp:  now,
		Level:      models.ClampEnergyLevel(result.EnergyLevel),
		Source:     models.EnergySourceInferred,
		Confidence: &confidence,
	}
	t.timeline = append(t.timeline, entry)
	t.recomputeLocked()
	return entry, true
}

// SeedTimeline replaces the timeline with entries loaded from storage,
// preserving their identities and order.
func (t *DayTracker) SeedTimeline(entries []models.EnergyEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeline = append([]models.EnergyEntry(nil), entries...)
	t.recomputeLocked()
}

// SnapshotTasks replaces the completed/pending task snapshots.
func (t *DayTracker) SnapshotTasks(tasks []*models.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	completed := make([]*models.Task, 0, len(tasks))
	pending := make([]*models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Completed {
			completed = append(completed, task)
		} else {
			pending = append(pending, task)
		}
	}
	t.completed = completed
	t.pending = pending
	t.recomputeLocked()
}

// SetSignals installs the latest behavioral snapshot.
func (t *DayTracker) SetSignals(signals models.BehavioralSignals) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := signals
	t.signals = &s
	t.recomputeLocked()
}

// Timeline returns a copy of the energy timeline.
func (t *DayTracker) Timeline() []models.EnergyEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.EnergyEntry(nil), t.timeline...)
}

// Tasks returns copies of the completed and pending snapshots.
func (t *DayTracker) Tasks() (completed, pending []*models.Task) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*models.Task(nil), t.completed...), append([]*models.Task(nil), t.pending...)
}

// Signals returns the latest snapshot, or nil before the first tick.
func (t *DayTracker) Signals() *models.BehavioralSignals {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.signals == nil {
		return nil
	}
	s := *t.signals
	return &s
}

// Scores returns the current scores, or an ErrCalculationFailed if no
// computation has succeeded yet.
func (t *DayTracker) Scores() (flow.Scores, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.scores == nil {
		return flow.Scores{}, ErrCalculationFailed
	}
	return *t.scores, nil
}

// RecordDaily appends today's composite to the daily history and returns
// the record. Called at most once per calendar day by the reflection flow.
func (t *DayTracker) RecordDaily(now time.Time) (models.FlowScoreRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.scores == nil {
		return models.FlowScoreRecord{}, ErrCalculationFailed
	}
	rec := models.FlowScoreRecord{
		ID:                   uuid.New(),
		UserID:               t.userID,
		Date:                 now.Format("2006-01-02"),
		Score:                t.scores.Composite,
		EnergyAlignment:      t.scores.EnergyAlignment,
		CompletionEfficiency: t.scores.CompletionEfficiency,
		FocusConsistency:     t.scores.FocusConsistency,
		CalculatedAt:         now,
	}
	t.history = append(t.history, rec)
	return rec, nil
}

// CommitDaily records the day's composite optimistically: the record is
// appended to the local history, the commit callback performs the remote
// write, and a failed commit restores the history exactly as it was.
func (t *DayTracker) CommitDaily(ctx context.Context, day time.Time, commit func(ctx context.Context, record *models.FlowScoreRecord) error) (models.FlowScoreRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.scores == nil {
		return models.FlowScoreRecord{}, ErrCalculationFailed
	}
	rec := models.FlowScoreRecord{
		ID:                   uuid.New(),
		UserID:               t.userID,
		Date:                 day.Format("2006-01-02"),
		Score:                t.scores.Composite,
		EnergyAlignment:      t.scores.EnergyAlignment,
		CompletionEfficiency: t.scores.CompletionEfficiency,
		FocusConsistency:     t.scores.FocusConsistency,
		CalculatedAt:         time.Now(),
	}

	store := optimistic.NewStore(t.history)
	err := store.Commit(ctx, func(items []models.FlowScoreRecord) []models.FlowScoreRecord {
		return append(items, rec)
	}, func(ctx context.Context) error {
		return commit(ctx, &rec)
	})
	t.history = store.Items()
	if err != nil {
		return models.FlowScoreRecord{}, err
	}
	return rec, nil
}

// WeeklyAverage is the rounded mean of the last seven daily composites.
func (t *DayTracker) WeeklyAverage() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return flow.WeeklyAverage(t.history)
}

// Reset clears the day's state after end-of-day reflection completes.
// Daily history survives the reset; everything else starts fresh.
func (t *DayTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeline = nil
	t.completed = nil
	t.pending = nil
	t.signals = nil
	t.scores = nil
}

// recomputeLocked refreshes the scores; the caller holds the write lock.
// Computation over all-numeric guarded inputs should never panic, but if it
// does the previous score is kept and the failure logged.
func (t *DayTracker) recomputeLocked() {
	defer func() {
		if r := recover(); r != nil {
			if t.logger != nil {
				t.logger.Error("flow_score_calculation_panicked", zap.Any("panic", r))
			}
		}
	}()

	scores := flow.Calculate(t.timeline, t.completed, t.pending, t.signals)
	t.scores = &scores
}
