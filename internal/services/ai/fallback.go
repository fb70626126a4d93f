package ai

import (
	"context"
	"fmt"
	"math"
)

// FallbackProvider produces deterministic narration without any remote call.
// It backs every remote failure path and must never return an error.
type FallbackProvider struct{}

// NewFallbackProvider creates the local fallback provider
func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{}
}

// GenerateInsight produces a template insight from the day's numbers
func (p *FallbackProvider) GenerateInsight(_ context.Context, req InsightRequest) (*Insight, error) {
	completed := 0
	optimal := 0
	for _, t := range req.Tasks {
		if t.Completed {
			completed++
		} else if t.EnergyCost <= req.EnergyLevel {
			optimal++
		}
	}

	completionRate := 0
	if len(req.Tasks) > 0 {
		completionRate = int(math.Round(float64(completed) / float64(len(req.Tasks)) * 100))
	}

	return &Insight{
		Insight:        fmt.Sprintf("Based on your %d completed tasks and %d/5 energy, keep up the good work.", completed, req.EnergyLevel),
		OptimalTasks:   optimal,
		CompletionRate: completionRate,
		Recommendation: "Continue focusing on tasks aligned with your energy level.",
		FlowScore:      completionRate,
	}, nil
}

// GenerateReflection produces a template end-of-day reflection
func (p *FallbackProvider) GenerateReflection(_ context.Context, req ReflectionRequest) (*ReflectionDraft, error) {
	total := len(req.Completed) + len(req.Pending)
	completionRate := 0
	if total > 0 {
		completionRate = int(math.Round(float64(len(req.Completed)) / float64(total) * 100))
	}

	return &ReflectionDraft{
		Summary:            fmt.Sprintf("Great work today! You completed %d tasks with a %d%% completion rate.", len(req.Completed), completionRate),
		EnergyDrains:       "Evening hours showed decreased energy levels",
		EnergyBoosts:       "Morning/afternoon hours aligned well with task demands",
		ReflectiveQuestion: "What one boundary could you set tomorrow to preserve your peak energy hours?",
		TomorrowFocus:      "Protect high-energy time blocks for priority tasks",
		Generated:          false,
	}, nil
}

// RecommendTasks returns up to three pending tasks matching the energy level
func (p *FallbackProvider) RecommendTasks(_ context.Context, req RecommendationRequest) ([]Recommendation, error) {
	var recs []Recommendation
	for _, t := range req.Tasks {
		if t.Completed || t.EnergyCost > req.EnergyLevel {
			continue
		}
		recs = append(recs, Recommendation{
			Task:        t,
			Explanation: fmt.Sprintf("Matches your current energy level (%d/5) for optimal performance.", req.EnergyLevel),
			Confidence:  0.7,
			Factors:     []string{"energy_alignment"},
		})
		if len(recs) == 3 {
			break
		}
	}
	return recs, nil
}

// RegisterFallback registers the local fallback factory with a registry
func RegisterFallback(registry *ProviderRegistry) {
	registry.Register("fallback", func(_ map[string]string) (NarrationProvider, error) {
		return NewFallbackProvider(), nil
	})
}
