package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/daysense/daysense-api/internal/database"
	"github.com/daysense/daysense-api/internal/middleware"
	"github.com/daysense/daysense-api/internal/models"
	"github.com/daysense/daysense-api/internal/validation"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskRepo database.TaskRepositoryInterface
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskRepo database.TaskRepositoryInterface) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix (e.g., from apiRouter.PathPrefix("/tasks"))
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/toggle", h.ToggleTask).Methods("POST")
}

const (
	// MaxTitleLength is the maximum length for a task title
	MaxTitleLength = 500
	// MaxDescriptionLength is the maximum length for a task description
	MaxDescriptionLength = 10000
)

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title            string  `json:"title" validate:"required,min=1,max=500"`
	Description      *string `json:"description,omitempty" validate:"omitempty,max=10000"`
	EnergyCost       int     `json:"energy_cost" validate:"required,min=1,max=5"`
	EstimatedMinutes int     `json:"estimated_minutes" validate:"required,min=1,max=1440"`
	Priority         string  `json:"priority" validate:"required,task_priority"`
	Category         *string `json:"category,omitempty" validate:"omitempty,task_category"`
}

// UpdateTaskRequest represents an update task request
type UpdateTaskRequest struct {
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	EnergyCost       *int    `json:"energy_cost,omitempty"`
	EstimatedMinutes *int    `json:"estimated_minutes,omitempty"`
	Priority         *string `json:"priority,omitempty"`
	Category         *string `json:"category,omitempty"`
	Completed        *bool   `json:"completed,omitempty"`
}

// ListTasksResponse represents the response for listing tasks
type ListTasksResponse struct {
	Tasks []*models.Task `json:"tasks"`
	Total int            `json:"total"`
}

// ListTasks lists tasks for the authenticated user, optionally filtered
// by completion status
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()

	var completed *bool
	if c := r.URL.Query().Get("completed"); c != "" {
		switch c {
		case "true":
			v := true
			completed = &v
		case "false":
			v := false
			completed = &v
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "completed must be 'true' or 'false'")
			return
		}
	}

	tasks, err := h.taskRepo.GetByUserID(ctx, user.ID, completed)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	respondJSON(w, http.StatusOK, ListTasksResponse{Tasks: tasks, Total: len(tasks)})
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	// Validate request
	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	// Sanitize text input
	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	task := &models.Task{
		ID:               uuid.New(),
		UserID:           user.ID,
		Title:            req.Title,
		EnergyCost:       req.EnergyCost,
		EstimatedMinutes: req.EstimatedMinutes,
		Priority:         models.TaskPriority(req.Priority),
	}
	if req.Description != nil {
		sanitized := validation.SanitizeText(*req.Description)
		task.Description = &sanitized
	}
	if req.Category != nil {
		category := models.TaskCategory(*req.Category)
		task.Category = &category
	}

	if err := h.taskRepo.Create(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	// Update fields if provided with validation
	if req.Title != nil {
		sanitized := validation.SanitizeText(*req.Title)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxTitleLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Title exceeds maximum length of %d characters", MaxTitleLength))
			return
		}
		task.Title = sanitized
	}
	if req.Description != nil {
		sanitized := validation.SanitizeText(*req.Description)
		if len(sanitized) > MaxDescriptionLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Description exceeds maximum length of %d characters", MaxDescriptionLength))
			return
		}
		task.Description = &sanitized
	}
	if req.EnergyCost != nil {
		if err := validation.ValidateEnergyLevel(*req.EnergyCost); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.EnergyCost = *req.EnergyCost
	}
	if req.EstimatedMinutes != nil {
		if *req.EstimatedMinutes < 1 || *req.EstimatedMinutes > 1440 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "estimated_minutes must be between 1 and 1440")
			return
		}
		task.EstimatedMinutes = *req.EstimatedMinutes
	}
	if req.Priority != nil {
		if err := validation.ValidateTaskPriority(*req.Priority); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.Priority = models.TaskPriority(*req.Priority)
	}
	if req.Category != nil {
		if err := validation.ValidateTaskCategory(*req.Category); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		category := models.TaskCategory(*req.Category)
		task.Category = &category
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}

	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	if err := h.taskRepo.Delete(r.Context(), task.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask flips a task's completion state
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadOwnedTask(w, r)
	if !ok {
		return
	}

	task.Completed = !task.Completed

	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to toggle task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// loadOwnedTask resolves the path ID to a task owned by the caller,
// writing the error response itself when that fails.
func (h *TaskHandler) loadOwnedTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return nil, false
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return nil, false
	}

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return nil, false
	}

	if task.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
		return nil, false
	}

	return task, true
}
