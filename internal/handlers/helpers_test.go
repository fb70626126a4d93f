package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		data     any
		validate func(*testing.T, map[string]any)
	}{
		{
			name:   "object payload",
			status: http.StatusOK,
			data:   map[string]any{"level": 4, "state": "focus"},
			validate: func(t *testing.T, body map[string]any) {
				data, ok := body["data"].(map[string]any)
				if !ok {
					t.Fatal("Expected data to be an object")
				}
				if data["state"] != "focus" {
					t.Errorf("Expected state focus, got %v", data["state"])
				}
			},
		},
		{
			name:   "nil data",
			status: http.StatusCreated,
			data:   nil,
			validate: func(t *testing.T, body map[string]any) {
				if body["data"] != nil {
					t.Error("Expected data to be null")
				}
			},
		},
		{
			name:   "array payload",
			status: http.StatusOK,
			data:   []string{"recharge", "flow", "focus"},
			validate: func(t *testing.T, body map[string]any) {
				data, ok := body["data"].([]any)
				if !ok {
					t.Fatal("Expected data to be an array")
				}
				if len(data) != 3 {
					t.Errorf("Expected 3 elements, got %d", len(data))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", ct)
			}

			var body map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if success, ok := body["success"].(bool); !ok || !success {
				t.Error("Expected success to be true")
			}
			ts, ok := body["timestamp"].(string)
			if !ok {
				t.Fatal("Expected timestamp to be present")
			}
			if _, err := time.Parse(time.RFC3339, ts); err != nil {
				t.Errorf("Timestamp %q is not RFC3339: %v", ts, err)
			}

			if tt.validate != nil {
				tt.validate(t, body)
			}
		})
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		errorType   string
		message     string
		wantMessage string
	}{
		{
			name:        "bad request",
			status:      http.StatusBadRequest,
			errorType:   "Bad Request",
			message:     "level must be between 1 and 5",
			wantMessage: "level must be between 1 and 5",
		},
		{
			name:        "internal error",
			status:      http.StatusInternalServerError,
			errorType:   "Internal Server Error",
			message:     "Failed to retrieve timeline",
			wantMessage: "Failed to retrieve timeline",
		},
		{
			name:        "long message truncated",
			status:      http.StatusInternalServerError,
			errorType:   "Internal Server Error",
			message:     strings.Repeat("x", 300),
			wantMessage: strings.Repeat("x", 200) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSONError(w, tt.status, tt.errorType, tt.message)

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}

			var body map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if success, ok := body["success"].(bool); !ok || success {
				t.Error("Expected success to be false")
			}
			if body["error"] != tt.errorType {
				t.Errorf("Expected error %q, got %v", tt.errorType, body["error"])
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("Expected message %q, got %v", tt.wantMessage, body["message"])
			}
			if _, ok := body["timestamp"].(string); !ok {
				t.Error("Expected timestamp to be present")
			}
		})
	}
}

// Test helper to create a test request with a JSON body. A string body is
// sent raw so tests can exercise malformed payloads.
func newTestRequest(method, path string, body any) *http.Request {
	var bodyReader *bytes.Reader
	switch b := body.(type) {
	case nil:
		bodyReader = bytes.NewReader(nil)
	case string:
		bodyReader = bytes.NewReader([]byte(b))
	default:
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}
	return httptest.NewRequest(method, path, bodyReader)
}
