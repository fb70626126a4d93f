package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/daysense/daysense-api/internal/database"
	"github.com/daysense/daysense-api/internal/middleware"
	"github.com/daysense/daysense-api/internal/queue"
)

// ReflectionHandler serves stored reflections and triggers generation
type ReflectionHandler struct {
	reflectionRepo database.ReflectionRepositoryInterface
	jobQueue       queue.JobQueue
}

// NewReflectionHandler creates a new reflection handler
func NewReflectionHandler(reflectionRepo database.ReflectionRepositoryInterface, jobQueue queue.JobQueue) *ReflectionHandler {
	return &ReflectionHandler{reflectionRepo: reflectionRepo, jobQueue: jobQueue}
}

// RegisterRoutes registers reflection routes on the given router
// The router should already have the /reflection prefix
func (h *ReflectionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.Get).Methods("GET")
	r.HandleFunc("/generate", h.Generate).Methods("POST")
}

// Get returns the stored reflection for a day, defaulting to today
func (h *ReflectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	date := time.Now().Format("2006-01-02")
	if d := r.URL.Query().Get("date"); d != "" {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		date = d
	}

	reflection, err := h.reflectionRepo.GetByDate(r.Context(), user.ID, date)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No reflection for that day")
		return
	}

	respondJSON(w, http.StatusOK, reflection)
}

// GenerateResponse acknowledges an enqueued reflection job
type GenerateResponse struct {
	JobID string `json:"job_id"`
	Date  string `json:"date"`
}

// Generate enqueues an immediate reflection job for today. The worker
// computes the day's flow score and stores the narrative.
func (h *ReflectionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	date := time.Now().Format("2006-01-02")
	job := queue.NewJob(queue.JobTypeDailyReflection, user.ID)
	job.Metadata["date"] = date

	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to enqueue reflection job")
		return
	}

	respondJSON(w, http.StatusAccepted, GenerateResponse{
		JobID: job.ID.String(),
		Date:  date,
	})
}
