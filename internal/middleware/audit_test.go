package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestAudit_PassesThroughStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{"ok response", http.StatusOK},
		{"unauthorized is audited", http.StatusUnauthorized},
		{"forbidden is audited", http.StatusForbidden},
		{"rate limited is audited", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			middleware := Audit(zap.NewNop())(handler)

			req := httptest.NewRequest("GET", "/api/v1/tasks", nil)
			req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
			w := httptest.NewRecorder()

			middleware.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}
