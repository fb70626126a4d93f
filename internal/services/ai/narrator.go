package ai

import (
	"context"

	"go.uber.org/zap"
)

// Narrator wraps a remote narration provider with the local fallback.
// Every method degrades to the fallback on remote failure, so callers
// always get a usable result.
type Narrator struct {
	remote   NarrationProvider // nil when no API key is configured
	fallback *FallbackProvider
	logger   *zap.Logger
}

// NewNarrator creates a narrator. remote may be nil; the fallback then
// serves every request.
func NewNarrator(remote NarrationProvider, logger *zap.Logger) *Narrator {
	return &Narrator{
		remote:   remote,
		fallback: NewFallbackProvider(),
		logger:   logger,
	}
}

// GenerateInsight produces an insight, degrading to the fallback on failure
func (n *Narrator) GenerateInsight(ctx context.Context, req InsightRequest) *Insight {
	if n.remote != nil {
		insight, err := n.remote.GenerateInsight(ctx, req)
		if err == nil {
			return insight
		}
		n.logDegradation("generate_insight", err)
	}
	insight, _ := n.fallback.GenerateInsight(ctx, req)
	return insight
}

// GenerateReflection produces a reflection, degrading to the fallback on failure
func (n *Narrator) GenerateReflection(ctx context.Context, req ReflectionRequest) *ReflectionDraft {
	if n.remote != nil {
		draft, err := n.remote.GenerateReflection(ctx, req)
		if err == nil {
			return draft
		}
		n.logDegradation("generate_reflection", err)
	}
	draft, _ := n.fallback.GenerateReflection(ctx, req)
	return draft
}

// RecommendTasks produces recommendations, degrading to the fallback on failure
func (n *Narrator) RecommendTasks(ctx context.Context, req RecommendationRequest) []Recommendation {
	if n.remote != nil {
		recs, err := n.remote.RecommendTasks(ctx, req)
		if err == nil {
			return recs
		}
		n.logDegradation("recommend_tasks", err)
	}
	recs, _ := n.fallback.RecommendTasks(ctx, req)
	return recs
}

func (n *Narrator) logDegradation(operation string, err error) {
	if n.logger == nil {
		return
	}
	n.logger.Warn("narration_degraded_to_fallback",
		zap.String("operation", operation),
		zap.Bool("rate_limited", IsRateLimitError(err)),
		zap.Bool("quota_exceeded", IsQuotaError(err)),
		zap.Error(err),
	)
}
