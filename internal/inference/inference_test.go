package inference

import (
	"strings"
	"testing"

	"github.com/daysense/daysense-api/internal/models"
)

func TestInferEnergy_TimeOfDay(t *testing.T) {
	t.Parallel()

	// Keep the other signals in their neutral bands so only the time-of-day
	// deltas decide the outcome.
	neutral := models.BehavioralSignals{
		TaskSwitchingFreq: 5,
		IdleTimeMinutes:   10,
		CompletionSpeed:   models.CompletionSpeedUsual,
	}

	tests := []struct {
		name      string
		timeOfDay models.TimeOfDay
		expected  int
	}{
		{"morning favors high energy", models.TimeOfDayMorning, 4},
		{"afternoon favors moderate", models.TimeOfDayAfternoon, 3},
		{"evening favors low", models.TimeOfDayEvening, 2},
		{"late night favors very low", models.TimeOfDayLateNight, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			signals := neutral
			signals.TimeOfDay = tt.timeOfDay
			got := InferEnergy(signals)
			if got.EnergyLevel != tt.expected {
				t.Errorf("EnergyLevel = %d, want %d", got.EnergyLevel, tt.expected)
			}
		})
	}
}

func TestInferEnergy_ZeroAccumulators(t *testing.T) {
	t.Parallel()

	// An unrecognized time of day with all other signals in neutral bands
	// leaves every accumulator at zero.
	signals := models.BehavioralSignals{
		TimeOfDay:         models.TimeOfDay("unknown"),
		TaskSwitchingFreq: 5,
		IdleTimeMinutes:   10,
		CompletionSpeed:   models.CompletionSpeedUsual,
	}

	got := InferEnergy(signals)
	if got.Confidence != 0 {
		t.Errorf("Confidence = %d, want 0 when nothing scored", got.Confidence)
	}
	if got.EnergyLevel != 1 {
		t.Errorf("EnergyLevel = %d, want 1 (first-max scan)", got.EnergyLevel)
	}
}

func TestInferEnergy_TieBreaksLow(t *testing.T) {
	t.Parallel()

	// Evening puts 15 on level 2 and 10 on level 3; fast completion puts
	// 15 on level 4 and 10 on level 5. Levels 2 and 4 tie at 15 and the
	// scan must pick 2.
	signals := models.BehavioralSignals{
		TimeOfDay:         models.TimeOfDayEvening,
		TaskSwitchingFreq: 5,
		IdleTimeMinutes:   10,
		CompletionSpeed:   models.CompletionSpeedFaster,
	}

	got := InferEnergy(signals)
	if got.EnergyLevel != 2 {
		t.Errorf("EnergyLevel = %d, want 2 on a 2/4 tie", got.EnergyLevel)
	}
	if got.Confidence != 0 {
		t.Errorf("Confidence = %d, want 0 on a tie", got.Confidence)
	}
}

func TestInferEnergy_Confidence(t *testing.T) {
	t.Parallel()

	// Late night alone: level 1 gets 20, level 2 gets 10.
	// Confidence = round(100 * (20-10)/20) = 50.
	signals := models.BehavioralSignals{
		TimeOfDay:         models.TimeOfDayLateNight,
		TaskSwitchingFreq: 5,
		IdleTimeMinutes:   10,
		CompletionSpeed:   models.CompletionSpeedUsual,
	}

	got := InferEnergy(signals)
	if got.EnergyLevel != 1 {
		t.Fatalf("EnergyLevel = %d, want 1", got.EnergyLevel)
	}
	if got.Confidence != 50 {
		t.Errorf("Confidence = %d, want 50", got.Confidence)
	}
}

func TestInferEnergy_Deterministic(t *testing.T) {
	t.Parallel()

	signals := models.BehavioralSignals{
		TimeOfDay:         models.TimeOfDayMorning,
		TaskSwitchingFreq: 12,
		IdleTimeMinutes:   20,
		CompletionSpeed:   models.CompletionSpeedSlower,
		LateNightUsage:    true,
	}

	first := InferEnergy(signals)
	for i := 0; i < 10; i++ {
		if got := InferEnergy(signals); got != first {
			t.Fatalf("InferEnergy not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestInferEnergy_SignalSummary(t *testing.T) {
	t.Parallel()

	signals := models.BehavioralSignals{
		TimeOfDay:         models.TimeOfDayEvening,
		TaskSwitchingFreq: 15,
		IdleTimeMinutes:   30,
		CompletionSpeed:   models.CompletionSpeedSlower,
		LateNightUsage:    true,
	}

	got := InferEnergy(signals)
	for _, want := range []string{"high task switching", "long idle periods", "slower completion", "late-night usage"} {
		if !strings.Contains(got.SignalSummary, want) {
			t.Errorf("SignalSummary %q missing %q", got.SignalSummary, want)
		}
	}

	quiet := models.BehavioralSignals{
		TimeOfDay:         models.TimeOfDayMorning,
		TaskSwitchingFreq: 5,
		IdleTimeMinutes:   10,
		CompletionSpeed:   models.CompletionSpeedUsual,
	}
	if got := InferEnergy(quiet); got.SignalSummary != "Based on general usage patterns" {
		t.Errorf("SignalSummary = %q, want general fallback", got.SignalSummary)
	}
}

func TestInferEnergy_UserMessage(t *testing.T) {
	t.Parallel()

	signals := models.BehavioralSignals{
		TimeOfDay:         models.TimeOfDayMorning,
		TaskSwitchingFreq: 1,
		IdleTimeMinutes:   2,
		CompletionSpeed:   models.CompletionSpeedFaster,
	}

	got := InferEnergy(signals)
	if got.EnergyLevel != 4 {
		t.Fatalf("EnergyLevel = %d, want 4", got.EnergyLevel)
	}
	if !strings.Contains(got.UserMessage, "high (4/5)") {
		t.Errorf("UserMessage = %q, want the adjective ladder interpolated", got.UserMessage)
	}
}
