package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/daysense/daysense-api/internal/database"
	"github.com/daysense/daysense-api/internal/middleware"
	"github.com/daysense/daysense-api/internal/models"
	"github.com/daysense/daysense-api/internal/services/ai"
	"github.com/daysense/daysense-api/internal/validation"
)

// InsightsHandler serves on-demand coaching narration
type InsightsHandler struct {
	narrator    *ai.Narrator
	taskRepo    database.TaskRepositoryInterface
	profileRepo database.ProfileRepositoryInterface
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(
	narrator *ai.Narrator,
	taskRepo database.TaskRepositoryInterface,
	profileRepo database.ProfileRepositoryInterface,
) *InsightsHandler {
	return &InsightsHandler{narrator: narrator, taskRepo: taskRepo, profileRepo: profileRepo}
}

// RegisterRoutes registers insight routes on the given router
// The router should already have the /insights prefix
func (h *InsightsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.Generate).Methods("POST")
	r.HandleFunc("/recommendations", h.Recommendations).Methods("GET")
}

// GenerateInsightRequest optionally carries a user question
type GenerateInsightRequest struct {
	Question string `json:"question,omitempty"`
}

// Generate produces a coaching insight from the current day state.
// Narration always succeeds; remote failures degrade to the local fallback.
func (h *InsightsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req GenerateInsightRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
			return
		}
	}
	req.Question = validation.SanitizeText(req.Question)

	ctx := r.Context()
	tasks, err := h.taskRepo.GetByUserID(ctx, user.ID, nil)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	profile, err := h.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		profile = models.PlaceholderProfile(user.ID)
	}

	insight := h.narrator.GenerateInsight(ctx, ai.InsightRequest{
		Tasks:       tasks,
		EnergyLevel: profile.EnergyLevel,
		NorthStar:   profile.NorthStar,
		Question:    req.Question,
	})

	respondJSON(w, http.StatusOK, insight)
}

// RecommendationsResponse lists suggested next tasks
type RecommendationsResponse struct {
	Recommendations []ai.Recommendation `json:"recommendations"`
}

// Recommendations suggests pending tasks matched to the current energy level
func (h *InsightsHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	pending := false
	tasks, err := h.taskRepo.GetByUserID(ctx, user.ID, &pending)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	profile, err := h.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		profile = models.PlaceholderProfile(user.ID)
	}

	recs := h.narrator.RecommendTasks(ctx, ai.RecommendationRequest{
		Tasks:       tasks,
		EnergyLevel: profile.EnergyLevel,
		TimeOfDay:   models.TimeOfDayFor(time.Now().Hour()),
	})
	if recs == nil {
		recs = []ai.Recommendation{}
	}

	respondJSON(w, http.StatusOK, RecommendationsResponse{Recommendations: recs})
}
