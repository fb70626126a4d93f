package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/daysense/daysense-api/internal/database"
	"github.com/daysense/daysense-api/internal/flow"
	"github.com/daysense/daysense-api/internal/middleware"
	"github.com/daysense/daysense-api/internal/models"
)

const (
	// DefaultHistoryDays is the default window for score history
	DefaultHistoryDays = 7
	// MaxHistoryDays caps the history window
	MaxHistoryDays = 90
)

// FlowScoreHandler serves live and historical flow scores
type FlowScoreHandler struct {
	taskRepo   database.TaskRepositoryInterface
	energyRepo database.EnergyEntryRepositoryInterface
	flowRepo   database.FlowScoreRepositoryInterface
	signalRepo database.SignalSnapshotRepositoryInterface
}

// NewFlowScoreHandler creates a new flow score handler
func NewFlowScoreHandler(
	taskRepo database.TaskRepositoryInterface,
	energyRepo database.EnergyEntryRepositoryInterface,
	flowRepo database.FlowScoreRepositoryInterface,
	signalRepo database.SignalSnapshotRepositoryInterface,
) *FlowScoreHandler {
	return &FlowScoreHandler{taskRepo: taskRepo, energyRepo: energyRepo, flowRepo: flowRepo, signalRepo: signalRepo}
}

// RegisterRoutes registers flow score routes on the given router
// The router should already have the /flow-score prefix
func (h *FlowScoreHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.Current).Methods("GET")
	r.HandleFunc("/history", h.History).Methods("GET")
	r.HandleFunc("/weekly", h.Weekly).Methods("GET")
}

// CurrentScoreResponse is today's live score with its sub-scores
type CurrentScoreResponse struct {
	Date   string      `json:"date"`
	Scores flow.Scores `json:"scores"`
}

// Current computes today's score from the live day state
func (h *FlowScoreHandler) Current(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	now := time.Now()

	tasks, err := h.taskRepo.GetByUserID(ctx, user.ID, nil)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}
	var completed, pending []*models.Task
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}

	timeline, err := h.energyRepo.GetTimelineForDay(ctx, user.ID, now)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve timeline")
		return
	}

	// Focus consistency reads the latest sampled snapshot. A user with no
	// snapshot yet scores neutral; a lookup failure degrades the same way
	// rather than failing the whole score.
	signals, err := h.signalRepo.GetLatest(ctx, user.ID)
	if err != nil {
		signals = nil
	}

	respondJSON(w, http.StatusOK, CurrentScoreResponse{
		Date:   now.Format("2006-01-02"),
		Scores: flow.Calculate(timeline, completed, pending, signals),
	})
}

// HistoryResponse is a window of daily score records, newest first
type HistoryResponse struct {
	Records []models.FlowScoreRecord `json:"records"`
	Days    int                      `json:"days"`
}

// History returns the stored daily records
func (h *FlowScoreHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	days := DefaultHistoryDays
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed < 1 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "days must be a positive integer")
			return
		}
		if parsed > MaxHistoryDays {
			parsed = MaxHistoryDays
		}
		days = parsed
	}

	records, err := h.flowRepo.GetRecent(r.Context(), user.ID, days)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve score history")
		return
	}
	if records == nil {
		records = []models.FlowScoreRecord{}
	}

	respondJSON(w, http.StatusOK, HistoryResponse{Records: records, Days: days})
}

// WeeklyResponse is the rounded average over the last seven records
type WeeklyResponse struct {
	WeeklyAverage int `json:"weekly_average"`
	Days          int `json:"days"`
}

// Weekly returns the average composite over the last seven stored days
func (h *FlowScoreHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	records, err := h.flowRepo.GetRecent(r.Context(), user.ID, DefaultHistoryDays)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve score history")
		return
	}

	respondJSON(w, http.StatusOK, WeeklyResponse{
		WeeklyAverage: flow.WeeklyAverage(records),
		Days:          len(records),
	})
}
