package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/daysense/daysense-api/internal/models"
)

// failingProvider simulates a remote provider that always errors
type failingProvider struct{}

func (failingProvider) GenerateInsight(context.Context, InsightRequest) (*Insight, error) {
	return nil, errors.New("boom")
}

func (failingProvider) GenerateReflection(context.Context, ReflectionRequest) (*ReflectionDraft, error) {
	return nil, errors.New("boom")
}

func (failingProvider) RecommendTasks(context.Context, RecommendationRequest) ([]Recommendation, error) {
	return nil, errors.New("boom")
}

// succeedingProvider returns a fixed remote result
type succeedingProvider struct{}

func (succeedingProvider) GenerateInsight(context.Context, InsightRequest) (*Insight, error) {
	return &Insight{Insight: "remote insight"}, nil
}

func (succeedingProvider) GenerateReflection(context.Context, ReflectionRequest) (*ReflectionDraft, error) {
	return &ReflectionDraft{Summary: "remote summary", Generated: true}, nil
}

func (succeedingProvider) RecommendTasks(context.Context, RecommendationRequest) ([]Recommendation, error) {
	return []Recommendation{{Explanation: "remote pick"}}, nil
}

func TestNarrator_RemoteFailureDegradesToFallback(t *testing.T) {
	t.Parallel()

	n := NewNarrator(failingProvider{}, nil)
	ctx := context.Background()

	insight := n.GenerateInsight(ctx, InsightRequest{EnergyLevel: 3})
	if insight == nil || insight.Insight == "" {
		t.Fatal("degraded insight must still be populated")
	}

	draft := n.GenerateReflection(ctx, ReflectionRequest{})
	if draft == nil || draft.Summary == "" {
		t.Fatal("degraded reflection must still be populated")
	}
	if draft.Generated {
		t.Error("degraded reflection must be marked Generated = false")
	}
}

func TestNarrator_RemoteSuccessUsed(t *testing.T) {
	t.Parallel()

	n := NewNarrator(succeedingProvider{}, nil)
	ctx := context.Background()

	if got := n.GenerateInsight(ctx, InsightRequest{}); got.Insight != "remote insight" {
		t.Errorf("Insight = %q, want remote result", got.Insight)
	}
	if got := n.GenerateReflection(ctx, ReflectionRequest{}); !got.Generated {
		t.Error("remote reflection must be marked Generated = true")
	}
}

func TestNarrator_NoRemoteUsesFallback(t *testing.T) {
	t.Parallel()

	n := NewNarrator(nil, nil)
	tasks := []*models.Task{{Title: "a", EnergyCost: 2, Priority: models.TaskPriorityLow}}

	recs := n.RecommendTasks(context.Background(), RecommendationRequest{Tasks: tasks, EnergyLevel: 3})
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1 from fallback", len(recs))
	}
	if recs[0].Confidence != 0.7 {
		t.Errorf("Confidence = %v, want fallback 0.7", recs[0].Confidence)
	}
}

func TestUnmarshalLenient_TrimsProse(t *testing.T) {
	t.Parallel()

	var parsed struct {
		Summary string `json:"summary"`
	}
	content := "Here you go:\n{\"summary\": \"good day\"}\nHope that helps!"
	if err := unmarshalLenient(content, &parsed); err != nil {
		t.Fatalf("unmarshalLenient: %v", err)
	}
	if parsed.Summary != "good day" {
		t.Errorf("Summary = %q, want %q", parsed.Summary, "good day")
	}
}
