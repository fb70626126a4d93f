package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/daysense/daysense-api/internal/models"
)

func TestUserFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns the attached user", func(t *testing.T) {
		t.Parallel()

		want := &models.User{ID: uuid.New(), Email: "tracker@daysense.dev"}
		req := httptest.NewRequest("GET", "/api/v1/profile", nil)
		req = req.WithContext(SetUserInContext(req.Context(), want))

		got := UserFromContext(req)
		if got == nil {
			t.Fatal("Expected user to be present")
		}
		if got.Email != want.Email {
			t.Errorf("Expected email %q, got %q", want.Email, got.Email)
		}
	})

	t.Run("nil without a user", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/api/v1/profile", nil)
		if got := UserFromContext(req); got != nil {
			t.Errorf("Expected nil user, got %+v", got)
		}
	})

	t.Run("nil for a wrong-typed value", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/api/v1/profile", nil)
		ctx := context.WithValue(req.Context(), userContextKey, "not a user")
		if got := UserFromContext(req.WithContext(ctx)); got != nil {
			t.Errorf("Expected nil user for wrong type, got %+v", got)
		}
	})
}
