package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskPriority represents how important a task is
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Weight returns the completion-efficiency weight for the priority.
// Unknown values fall back to the low weight.
func (p TaskPriority) Weight() float64 {
	switch p {
	case TaskPriorityHigh:
		return 1.5
	case TaskPriorityMedium:
		return 1.2
	default:
		return 1.0
	}
}

// TaskCategory represents the kind of work a task is
type TaskCategory string

const (
	TaskCategoryDeepWork      TaskCategory = "deep-work"
	TaskCategoryCommunication TaskCategory = "communication"
	TaskCategoryAdmin         TaskCategory = "admin"
	TaskCategoryCreative      TaskCategory = "creative"
	TaskCategoryWellness      TaskCategory = "wellness"
)

// Task represents a task item
type Task struct {
	ID               uuid.UUID     `json:"id"`
	UserID           uuid.UUID     `json:"user_id"`
	Title            string        `json:"title"`
	Description      *string       `json:"description,omitempty"`
	EnergyCost       int           `json:"energy_cost"`
	EstimatedMinutes int           `json:"estimated_minutes"`
	Priority         TaskPriority  `json:"priority"`
	Category         *TaskCategory `json:"category,omitempty"`
	Completed        bool          `json:"completed"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
