package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/daysense/daysense-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("task_priority", validateTaskPriority); err != nil {
		panic(fmt.Sprintf("failed to register task_priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_category", validateTaskCategory); err != nil {
		panic(fmt.Sprintf("failed to register task_category validator: %v", err))
	}
}

// validateTaskPriority validates that a string is a valid TaskPriority enum value
func validateTaskPriority(fl validator.FieldLevel) bool {
	return ValidateTaskPriority(fl.Field().String()) == nil
}

// validateTaskCategory validates that a string is a valid TaskCategory enum value
func validateTaskCategory(fl validator.FieldLevel) bool {
	return ValidateTaskCategory(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTaskPriority validates a TaskPriority string value
func ValidateTaskPriority(value string) error {
	switch models.TaskPriority(value) {
	case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s (must be 'low', 'medium', or 'high')", value)
	}
}

// ValidateTaskCategory validates a TaskCategory string value
func ValidateTaskCategory(value string) error {
	switch models.TaskCategory(value) {
	case models.TaskCategoryDeepWork, models.TaskCategoryCommunication, models.TaskCategoryAdmin,
		models.TaskCategoryCreative, models.TaskCategoryWellness:
		return nil
	default:
		return fmt.Errorf("invalid category: %s (must be 'deep-work', 'communication', 'admin', 'creative', or 'wellness')", value)
	}
}

// ValidateEnergyLevel validates a 1-5 energy level
func ValidateEnergyLevel(level int) error {
	if level < models.MinEnergyLevel || level > models.MaxEnergyLevel {
		return fmt.Errorf("invalid energy level: %d (must be between %d and %d)",
			level, models.MinEnergyLevel, models.MaxEnergyLevel)
	}
	return nil
}
