package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/daysense/daysense-api/internal/database"
	"github.com/daysense/daysense-api/internal/middleware"
	"github.com/daysense/daysense-api/internal/models"
	"github.com/daysense/daysense-api/internal/validation"
)

// EnergyHandler handles energy check-ins and the daily timeline
type EnergyHandler struct {
	energyRepo  database.EnergyEntryRepositoryInterface
	profileRepo database.ProfileRepositoryInterface
}

// NewEnergyHandler creates a new energy handler
func NewEnergyHandler(energyRepo database.EnergyEntryRepositoryInterface, profileRepo database.ProfileRepositoryInterface) *EnergyHandler {
	return &EnergyHandler{energyRepo: energyRepo, profileRepo: profileRepo}
}

// RegisterRoutes registers energy routes on the given router
// The router should already have the /energy prefix
func (h *EnergyHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/checkin", h.CheckIn).Methods("POST")
	r.HandleFunc("/timeline", h.Timeline).Methods("GET")
	r.HandleFunc("/current", h.Current).Methods("GET")
}

// CheckInRequest represents a manual energy check-in
type CheckInRequest struct {
	Level int `json:"level" validate:"required,min=1,max=5"`
}

// CheckIn appends a manual entry to the energy timeline
func (h *EnergyHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.ValidateEnergyLevel(req.Level); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	entry := &models.EnergyEntry{
		ID:        uuid.New(),
		UserID:    user.ID,
		Timestamp: time.Now(),
		Level:     req.Level,
		Source:    models.EnergySourceManual,
	}

	if err := h.energyRepo.Append(ctx, entry); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record check-in")
		return
	}

	// A manual check-in is authoritative for the profile's current level.
	if err := h.profileRepo.SetEnergyLevel(ctx, user.ID, req.Level); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update energy level")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// TimelineResponse is the day's ordered energy timeline
type TimelineResponse struct {
	Date    string               `json:"date"`
	Entries []models.EnergyEntry `json:"entries"`
}

// Timeline returns the entries for a day, defaulting to today
func (h *EnergyHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	day := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	entries, err := h.energyRepo.GetTimelineForDay(r.Context(), user.ID, day)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve timeline")
		return
	}
	if entries == nil {
		entries = []models.EnergyEntry{}
	}

	respondJSON(w, http.StatusOK, TimelineResponse{
		Date:    day.Format("2006-01-02"),
		Entries: entries,
	})
}

// CurrentResponse is the profile's current energy level and coarse state
type CurrentResponse struct {
	Level int                `json:"level"`
	State models.EnergyState `json:"state"`
}

// Current returns the current energy level and its three-bucket state
func (h *EnergyHandler) Current(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	profile, err := h.profileRepo.GetByUserID(r.Context(), user.ID)
	if err != nil {
		// No profile row yet; report the placeholder default
		profile = models.PlaceholderProfile(user.ID)
	}

	respondJSON(w, http.StatusOK, CurrentResponse{
		Level: profile.EnergyLevel,
		State: models.EnergyStateFor(profile.EnergyLevel),
	})
}
