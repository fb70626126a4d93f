package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/daysense/daysense-api/internal/models"
)

const (
	// DefaultGroqModel is the default model to use
	DefaultGroqModel = "llama-3.3-70b-versatile"
	// DefaultGroqBaseURL is Groq's OpenAI-compatible API base URL
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// GroqProvider implements the NarrationProvider interface against Groq's
// OpenAI-compatible chat completions API
type GroqProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewGroqProvider creates a new Groq provider with default settings
func NewGroqProvider(apiKey string, model string) *GroqProvider {
	return NewGroqProviderWithLogger(apiKey, DefaultGroqBaseURL, model, nil, false)
}

// NewGroqProviderWithLogger creates a new Groq provider with logger support
func NewGroqProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *GroqProvider {
	if model == "" {
		model = DefaultGroqModel
	}
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &GroqProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// GenerateInsight produces a short coaching insight for the current day
func (p *GroqProvider) GenerateInsight(ctx context.Context, req InsightRequest) (*Insight, error) {
	prompt := buildInsightPrompt(req)
	content, err := p.complete(ctx, "generate_insight",
		"You are an energy-aware productivity coach. Respond with valid JSON only, "+
			"with keys: insight, optimal_tasks, completion_rate, recommendation, flow_score.",
		prompt)
	if err != nil {
		return nil, err
	}

	var insight Insight
	if err := unmarshalLenient(content, &insight); err != nil {
		return nil, fmt.Errorf("failed to parse insight response: %w", err)
	}
	return &insight, nil
}

// GenerateReflection produces an end-of-day reflection narrative
func (p *GroqProvider) GenerateReflection(ctx context.Context, req ReflectionRequest) (*ReflectionDraft, error) {
	prompt := buildReflectionPrompt(req)
	content, err := p.complete(ctx, "generate_reflection",
		"You are an energy-aware productivity coach writing a short end-of-day reflection. "+
			"Respond with valid JSON only, with keys: summary, highs (array of strings), "+
			"lows (array of strings), suggested_north_star.",
		prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Summary            string   `json:"summary"`
		Highs              []string `json:"highs"`
		Lows               []string `json:"lows"`
		SuggestedNorthStar string   `json:"suggested_north_star"`
	}
	if err := unmarshalLenient(content, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse reflection response: %w", err)
	}
	if parsed.Summary == "" {
		return nil, errors.New("reflection response missing summary")
	}

	tomorrowFocus := parsed.SuggestedNorthStar
	if tomorrowFocus == "" {
		tomorrowFocus = "Focus on high-priority tasks during peak energy hours"
	}

	return &ReflectionDraft{
		Summary:            parsed.Summary,
		EnergyDrains:       strings.Join(parsed.Lows, ", "),
		EnergyBoosts:       strings.Join(parsed.Highs, ", "),
		ReflectiveQuestion: "What's one small change you could make tomorrow to protect your energy?",
		TomorrowFocus:      tomorrowFocus,
		Generated:          true,
	}, nil
}

// RecommendTasks suggests which pending tasks fit the user's current energy
func (p *GroqProvider) RecommendTasks(ctx context.Context, req RecommendationRequest) ([]Recommendation, error) {
	pending := pendingTasks(req.Tasks)
	if len(pending) == 0 {
		return nil, nil
	}

	prompt := buildRecommendationPrompt(req, pending)
	content, err := p.complete(ctx, "recommend_tasks",
		"You are an energy-aware productivity coach picking the single best next task. "+
			"Respond with valid JSON only, with keys: task_title, explanation.",
		prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		TaskTitle   string `json:"task_title"`
		Explanation string `json:"explanation"`
	}
	if err := unmarshalLenient(content, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse recommendation response: %w", err)
	}

	task := pending[0]
	for _, t := range pending {
		if t.Title == parsed.TaskTitle {
			task = t
			break
		}
	}

	explanation := parsed.Explanation
	if explanation == "" {
		explanation = "Recommended based on your current energy level."
	}

	return []Recommendation{{
		Task:        task,
		Explanation: explanation,
		Confidence:  0.85,
		Factors:     []string{"energy_match", "timing"},
	}}, nil
}

// complete sends a single chat completion request and returns the content
func (p *GroqProvider) complete(ctx context.Context, operation, system, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := ExtractRequestID(ctx)
	userIDStr := ExtractUserID(ctx)

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("user_id", userIDStr),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("user_id", userIDStr),
				zap.String("request_id", requestID),
				zap.Duration("latency_ms", latency),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("chat completion failed: %w", apiErr)
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("user_id", userIDStr),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

// unmarshalLenient parses model output as JSON, trimming any prose the model
// wrapped around the object.
func unmarshalLenient(content string, v any) error {
	raw := content
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		if len(raw) > 0 && raw[0] != '{' {
			start := bytes.Index([]byte(raw), []byte("{"))
			end := bytes.LastIndex([]byte(raw), []byte("}"))
			if start != -1 && end != -1 && end > start {
				raw = raw[start : end+1]
			}
		}
		if err := json.Unmarshal([]byte(raw), v); err != nil {
			return err
		}
	}
	return nil
}

func buildInsightPrompt(req InsightRequest) string {
	var b strings.Builder
	b.WriteString("Current day state:\n")
	fmt.Fprintf(&b, "Energy level: %d/5 (%s)\n", req.EnergyLevel, models.EnergyStateFor(req.EnergyLevel))
	if req.NorthStar != nil && *req.NorthStar != "" {
		fmt.Fprintf(&b, "Today's priority: %s\n", *req.NorthStar)
	}
	b.WriteString("Tasks:\n")
	writeTaskLines(&b, req.Tasks)
	if req.Question != "" {
		fmt.Fprintf(&b, "\nUser question: %s\n", req.Question)
	}
	b.WriteString("\nProduce one short, concrete insight about how this day is going and one recommendation.")
	return b.String()
}

func buildReflectionPrompt(req ReflectionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flow score today: %d/100\n", req.FlowScore)
	if req.NorthStar != nil && *req.NorthStar != "" {
		fmt.Fprintf(&b, "Today's priority: %s\n", *req.NorthStar)
	}
	fmt.Fprintf(&b, "Energy check-ins: %d\n", len(req.Timeline))
	for _, entry := range req.Timeline {
		fmt.Fprintf(&b, "- %s: %d/5 (%s)\n", entry.Timestamp.Format("15:04"), entry.Level, entry.Source)
	}
	b.WriteString("Completed tasks:\n")
	writeTaskLines(&b, req.Completed)
	b.WriteString("Pending tasks:\n")
	writeTaskLines(&b, req.Pending)
	b.WriteString("\nWrite a two-sentence summary of the day, list what energized and what drained the user, and suggest tomorrow's single priority.")
	return b.String()
}

func buildRecommendationPrompt(req RecommendationRequest, pending []*models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Energy level: %d/5 (%s), time of day: %s\n",
		req.EnergyLevel, models.EnergyStateFor(req.EnergyLevel), req.TimeOfDay)
	if req.Signals != nil {
		fmt.Fprintf(&b, "Recent behavior: %d task switches, %d idle minutes, completion speed %s\n",
			req.Signals.TaskSwitchingFreq, req.Signals.IdleTimeMinutes, req.Signals.CompletionSpeed)
	}
	b.WriteString("Pending tasks:\n")
	writeTaskLines(&b, pending)
	b.WriteString("\nPick the one task best matched to the current energy and explain why in one sentence.")
	return b.String()
}

func writeTaskLines(b *strings.Builder, tasks []*models.Task) {
	if len(tasks) == 0 {
		b.WriteString("- none\n")
		return
	}
	for _, t := range tasks {
		status := "pending"
		if t.Completed {
			status = "done"
		}
		fmt.Fprintf(b, "- %s (cost %d/5, ~%d min, %s priority, %s)\n",
			t.Title, t.EnergyCost, t.EstimatedMinutes, t.Priority, status)
	}
}

func pendingTasks(tasks []*models.Task) []*models.Task {
	var pending []*models.Task
	for _, t := range tasks {
		if !t.Completed {
			pending = append(pending, t)
		}
	}
	return pending
}

// RegisterGroq registers the Groq provider factory with a registry
func RegisterGroq(registry *ProviderRegistry) {
	registry.Register("groq", func(config map[string]string) (NarrationProvider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("groq api_key is required")
		}

		model := config["model"]
		baseURL := config["base_url"]

		return NewGroqProviderWithLogger(apiKey, baseURL, model, nil, false), nil
	})
}
