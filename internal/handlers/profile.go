package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/daysense/daysense-api/internal/database"
	"github.com/daysense/daysense-api/internal/middleware"
	"github.com/daysense/daysense-api/internal/models"
	"github.com/daysense/daysense-api/internal/validation"
)

// MaxNorthStarLength is the maximum length for the daily priority goal
const MaxNorthStarLength = 500

// ProfileHandler handles user profile requests
type ProfileHandler struct {
	profileRepo database.ProfileRepositoryInterface
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileRepo database.ProfileRepositoryInterface) *ProfileHandler {
	return &ProfileHandler{profileRepo: profileRepo}
}

// RegisterRoutes registers profile routes on the given router
// The router should already have the /profile prefix
func (h *ProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.Get).Methods("GET")
	r.HandleFunc("", h.Update).Methods("PATCH")
}

// Get returns the caller's profile, provisioning the placeholder when
// none exists yet
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	profile, err := h.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		profile = models.PlaceholderProfile(user.ID)
		if err := h.profileRepo.Upsert(ctx, profile); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to provision profile")
			return
		}
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfileRequest represents a profile update
type UpdateProfileRequest struct {
	EnergyLevel         *int    `json:"energy_level,omitempty"`
	NorthStar           *string `json:"north_star,omitempty"`
	OnboardingCompleted *bool   `json:"onboarding_completed,omitempty"`
}

// Update applies a partial update to the caller's profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	ctx := r.Context()
	profile, err := h.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		profile = models.PlaceholderProfile(user.ID)
	}

	if req.EnergyLevel != nil {
		if err := validation.ValidateEnergyLevel(*req.EnergyLevel); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		profile.EnergyLevel = *req.EnergyLevel
	}
	if req.NorthStar != nil {
		sanitized := validation.SanitizeText(*req.NorthStar)
		if len(sanitized) > MaxNorthStarLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "north_star is too long")
			return
		}
		if sanitized == "" {
			profile.NorthStar = nil
		} else {
			profile.NorthStar = &sanitized
		}
	}
	if req.OnboardingCompleted != nil {
		profile.OnboardingCompleted = *req.OnboardingCompleted
	}

	if err := h.profileRepo.Upsert(ctx, profile); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}
