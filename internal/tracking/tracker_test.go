package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daysense/daysense-api/internal/inference"
	"github.com/daysense/daysense-api/internal/models"
	"github.com/google/uuid"
)

func newTracker() *DayTracker {
	return NewDayTracker(uuid.New(), nil)
}

func TestDayTracker_ScoresBeforeAnyInput(t *testing.T) {
	t.Parallel()

	tracker := newTracker()
	if _, err := tracker.Scores(); !errors.Is(err, ErrCalculationFailed) {
		t.Errorf("Scores() error = %v, want ErrCalculationFailed", err)
	}
}

func TestDayTracker_ManualEnergyAppends(t *testing.T) {
	t.Parallel()

	tracker := newTracker()
	now := time.Now()

	tracker.AppendManualEnergy(3, now)
	tracker.AppendManualEnergy(5, now.Add(time.Hour))

	timeline := tracker.Timeline()
	if len(timeline) != 2 {
		t.Fatalf("len(timeline) = %d, want 2", len(timeline))
	}
	if timeline[0].Level != 3 || timeline[1].Level != 5 {
		t.Errorf("timeline levels = %d,%d want 3,5", timeline[0].Level, timeline[1].Level)
	}
	if timeline[0].Source != models.EnergySourceManual {
		t.Errorf("source = %s, want manual", timeline[0].Source)
	}
}

func TestDayTracker_SeedTimelineReplacesAndRecomputes(t *testing.T) {
	t.Parallel()

	tracker := newTracker()
	tracker.AppendManualEnergy(1, time.Now())

	stored := []models.EnergyEntry{
		{ID: uuid.New(), Level: 4, Source: models.EnergySourceManual, Timestamp: time.Now()},
		{ID: uuid.New(), Level: 2, Source: models.EnergySourceInferred, Timestamp: time.Now().Add(time.Hour)},
	}
	tracker.SeedTimeline(stored)

	timeline := tracker.Timeline()
	if len(timeline) != 2 {
		t.Fatalf("len(timeline) = %d, want 2", len(timeline))
	}
	if timeline[0].ID != stored[0].ID || timeline[1].ID != stored[1].ID {
		t.Error("seeded entries should keep their stored identities")
	}
	if _, err := tracker.Scores(); err != nil {
		t.Errorf("Scores() after seed: %v", err)
	}
}

func TestDayTracker_CommitDailyRollsBackOnRemoteFailure(t *testing.T) {
	t.Parallel()

	tracker := newTracker()
	tracker.AppendManualEnergy(3, time.Now())

	day := time.Now()
	if _, err := tracker.CommitDaily(context.Background(), day, func(ctx context.Context, record *models.FlowScoreRecord) error {
		return nil
	}); err != nil {
		t.Fatalf("CommitDaily() error = %v", err)
	}
	if got := tracker.WeeklyAverage(); got == 0 {
		t.Error("WeeklyAverage() = 0 after a successful commit, want the committed composite")
	}

	remoteErr := errors.New("write rejected")
	if _, err := tracker.CommitDaily(context.Background(), day.Add(24*time.Hour), func(ctx context.Context, record *models.FlowScoreRecord) error {
		return remoteErr
	}); !errors.Is(err, remoteErr) {
		t.Fatalf("CommitDaily() error = %v, want wrapped remote error", err)
	}

	// The failed commit must leave history exactly as it was.
	rec, err := tracker.RecordDaily(time.Now())
	if err != nil {
		t.Fatalf("RecordDaily() error = %v", err)
	}
	if got := tracker.WeeklyAverage(); got != rec.Score {
		t.Errorf("WeeklyAverage() = %d, want %d (only the two successful records counted)", got, rec.Score)
	}
}

func TestDayTracker_ManualEnergyClamped(t *testing.T) {
	t.Parallel()

	tracker := newTracker()
	entry := tracker.AppendManualEnergy(9, time.Now())
	if entry.Level != 5 {
		t.Errorf("level = %d, want clamped to 5", entry.Level)
	}
}

func TestDayTracker_InferredDedup(t *testing.T) {
	t.Parallel()

	tracker := newTracker()
	now := time.Now()
	tracker.AppendManualEnergy(4, now)

	// Same level as the preceding entry: suppressed.
	if _, ok := tracker.AppendInferredEnergy(inference.Result{EnergyLevel: 4, Confidence: 80}, now); ok {
		t.Error("expected duplicate inferred entry to be suppressed")
	}

	// Different level: appended with confidence attached.
	entry, ok := tracker.AppendInferredEnergy(inference.Result{EnergyLevel: 2, Confidence: 60}, now)
	if !ok {
		t.Fatal("expected non-duplicate inferred entry to append")
	}
	if entry.Source != models.EnergySourceInferred {
		t.Errorf("source = %s, want inferred", entry.Source)
	}
	if entry.Confidence == nil || *entry.Confidence != 60 {
		t.Errorf("confidence = %v, want 60", entry.Confidence)
	}
	if len(tracker.Timeline()) != 2 {
		t.Errorf("len(timeline) = %d, want 2", len(tracker.Timeline()))
	}
}

func TestDayTracker_RecomputeOnEachMutation(t *testing.T) {
	t.Parallel()

	tracker := newTracker()
	now := time.Now()

	tracker.AppendManualEnergy(5, now)
	tracker.SnapshotTasks([]*models.Task{
		{ID: uuid.New(), Title: "deep work", EnergyCost: 5, Priority: models.TaskPriorityHigh, Completed: true},
	})
	tracker.SetSignals(models.BehavioralSignals{
		TimeOfDay:         models.TimeOfDayMorning,
		TaskSwitchingFreq: 0,
		IdleTimeMinutes:   0,
		CompletionSpeed:   models.CompletionSpeedUsual,
	})

	scores, err := tracker.Scores()
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if scores.Composite != 100 {
		t.Errorf("Composite = %d, want 100 for the perfect day", scores.Composite)
	}
}

func TestDayTracker_RecordDailyAndWeeklyAverage(t *testing.T) {
	t.Parallel()

	tracker := newTracker()
	now := time.Now()
	tracker.AppendManualEnergy(5, now)
	tracker.SnapshotTasks([]*models.Task{
		{ID: uuid.New(), Title: "a", EnergyCost: 5, Priority: models.TaskPriorityHigh, Completed: true},
	})
	tracker.SetSignals(models.BehavioralSignals{})

	rec, err := tracker.RecordDaily(now)
	if err != nil {
		t.Fatalf("RecordDaily: %v", err)
	}
	if rec.Score != 100 {
		t.Errorf("recorded score = %d, want 100", rec.Score)
	}
	if rec.Date != now.Format("2006-01-02") {
		t.Errorf("date = %s, want today", rec.Date)
	}
	if got := tracker.WeeklyAverage(); got != 100 {
		t.Errorf("WeeklyAverage = %d, want 100", got)
	}
}

func TestDayTracker_ResetClearsDayButKeepsHistory(t *testing.T) {
	t.Parallel()

	tracker := newTracker()
	now := time.Now()
	tracker.AppendManualEnergy(3, now)
	tracker.SnapshotTasks([]*models.Task{
		{ID: uuid.New(), Title: "a", EnergyCost: 3, Priority: models.TaskPriorityLow, Completed: true},
	})
	tracker.SetSignals(models.BehavioralSignals{})
	if _, err := tracker.RecordDaily(now); err != nil {
		t.Fatalf("RecordDaily: %v", err)
	}

	tracker.Reset()

	if len(tracker.Timeline()) != 0 {
		t.Error("timeline not cleared on reset")
	}
	completed, pending := tracker.Tasks()
	if len(completed) != 0 || len(pending) != 0 {
		t.Error("task snapshots not cleared on reset")
	}
	if tracker.Signals() != nil {
		t.Error("signals not cleared on reset")
	}
	if _, err := tracker.Scores(); !errors.Is(err, ErrCalculationFailed) {
		t.Error("scores not cleared on reset")
	}
	if tracker.WeeklyAverage() == 0 {
		t.Error("daily history must survive the reset")
	}
}
