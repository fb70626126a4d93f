package ai

import (
	"context"

	"github.com/daysense/daysense-api/internal/models"
)

// NarrationProvider is the interface for AI narration providers
type NarrationProvider interface {
	// GenerateInsight produces a short coaching insight for the current day
	GenerateInsight(ctx context.Context, req InsightRequest) (*Insight, error)

	// GenerateReflection produces an end-of-day reflection narrative
	GenerateReflection(ctx context.Context, req ReflectionRequest) (*ReflectionDraft, error)

	// RecommendTasks suggests which pending tasks fit the user's current energy
	RecommendTasks(ctx context.Context, req RecommendationRequest) ([]Recommendation, error)
}

// InsightRequest carries the day state an insight is generated from
type InsightRequest struct {
	Tasks       []*models.Task `json:"tasks"`
	EnergyLevel int            `json:"energy_level"`
	NorthStar   *string        `json:"north_star,omitempty"`
	Question    string         `json:"question,omitempty"` // optional user question
}

// Insight is a generated coaching insight
type Insight struct {
	Insight        string `json:"insight"`
	OptimalTasks   int    `json:"optimal_tasks"`
	CompletionRate int    `json:"completion_rate"`
	Recommendation string `json:"recommendation"`
	FlowScore      int    `json:"flow_score"`
}

// ReflectionRequest carries the full day state a reflection is generated from
type ReflectionRequest struct {
	Timeline  []models.EnergyEntry       `json:"timeline"`
	Completed []*models.Task             `json:"completed"`
	Pending   []*models.Task             `json:"pending"`
	Signals   *models.BehavioralSignals  `json:"signals,omitempty"`
	FlowScore int                        `json:"flow_score"`
	NorthStar *string                    `json:"north_star,omitempty"`
}

// ReflectionDraft is a generated end-of-day narrative, not yet persisted
type ReflectionDraft struct {
	Summary            string `json:"summary"`
	EnergyDrains       string `json:"energy_drains"`
	EnergyBoosts       string `json:"energy_boosts"`
	ReflectiveQuestion string `json:"reflective_question"`
	TomorrowFocus      string `json:"tomorrow_focus"`
	Generated          bool   `json:"generated"` // false when produced by the local fallback
}

// RecommendationRequest carries the pending tasks and user context
type RecommendationRequest struct {
	Tasks       []*models.Task            `json:"tasks"`
	EnergyLevel int                       `json:"energy_level"`
	TimeOfDay   models.TimeOfDay          `json:"time_of_day"`
	Signals     *models.BehavioralSignals `json:"signals,omitempty"`
}

// Recommendation pairs a task with the reason it was suggested
type Recommendation struct {
	Task        *models.Task `json:"task"`
	Explanation string       `json:"explanation"`
	Confidence  float64      `json:"confidence"`
	Factors     []string     `json:"factors"`
}

// ProviderFactory creates a narration provider based on the provider type
type ProviderFactory func(config map[string]string) (NarrationProvider, error)

// ProviderRegistry stores available narration providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (NarrationProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "narration provider not found: " + e.Name
}
