package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/daysense/daysense-api/internal/middleware"
	"github.com/daysense/daysense-api/internal/models"
)

// mockTaskRepo implements database.TaskRepositoryInterface for tests
type mockTaskRepo struct {
	createFunc      func(ctx context.Context, task *models.Task) error
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*models.Task, error)
	getByUserIDFunc func(ctx context.Context, userID uuid.UUID, completed *bool) ([]*models.Task, error)
	updateFunc      func(ctx context.Context, task *models.Task) error
	deleteFunc      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.Task) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errors.New("not found")
}

func (m *mockTaskRepo) GetByUserID(ctx context.Context, userID uuid.UUID, completed *bool) ([]*models.Task, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID, completed)
	}
	return nil, nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *models.Task) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func newTaskRouter(repo *mockTaskRepo) *mux.Router {
	r := mux.NewRouter()
	NewTaskHandler(repo).RegisterRoutes(r.PathPrefix("/tasks").Subrouter())
	return r
}

func serveAs(t *testing.T, router *mux.Router, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		req = req.WithContext(middleware.SetUserInContext(req.Context(), user))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "user@example.com"}
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("Expected success envelope, got body %s", w.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	user := testUser()

	tests := []struct {
		name           string
		query          string
		user           *models.User
		tasks          []*models.Task
		repoErr        error
		wantStatus     int
		wantTotal      int
		wantCompleted  *bool
	}{
		{
			name:       "all tasks",
			user:       user,
			tasks:      []*models.Task{{ID: uuid.New(), UserID: user.ID, Title: "one"}, {ID: uuid.New(), UserID: user.ID, Title: "two"}},
			wantStatus: http.StatusOK,
			wantTotal:  2,
		},
		{
			name:       "empty list is not null",
			user:       user,
			tasks:      nil,
			wantStatus: http.StatusOK,
			wantTotal:  0,
		},
		{
			name:          "completed filter",
			query:         "?completed=true",
			user:          user,
			tasks:         []*models.Task{{ID: uuid.New(), UserID: user.ID, Title: "done", Completed: true}},
			wantStatus:    http.StatusOK,
			wantTotal:     1,
			wantCompleted: boolPtr(true),
		},
		{
			name:       "invalid filter",
			query:      "?completed=maybe",
			user:       user,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no user in context",
			user:       nil,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "repository failure",
			user:       user,
			repoErr:    errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotCompleted *bool
			repo := &mockTaskRepo{
				getByUserIDFunc: func(ctx context.Context, userID uuid.UUID, completed *bool) ([]*models.Task, error) {
					gotCompleted = completed
					return tt.tasks, tt.repoErr
				},
			}

			req := httptest.NewRequest("GET", "/tasks"+tt.query, nil)
			w := serveAs(t, newTaskRouter(repo), req, tt.user)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp ListTasksResponse
			decodeData(t, w, &resp)

			if resp.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, resp.Total)
			}
			if resp.Tasks == nil {
				t.Error("Expected tasks to be an empty array, not null")
			}
			if tt.wantCompleted != nil {
				if gotCompleted == nil || *gotCompleted != *tt.wantCompleted {
					t.Errorf("Expected completed filter %v, got %v", *tt.wantCompleted, gotCompleted)
				}
			}
		})
	}
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	user := testUser()

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{
			name: "valid task",
			body: map[string]any{
				"title":             "Write report",
				"energy_cost":       3,
				"estimated_minutes": 45,
				"priority":          "high",
				"category":          "deep-work",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "missing title",
			body: map[string]any{
				"energy_cost":       3,
				"estimated_minutes": 45,
				"priority":          "high",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "energy cost out of range",
			body: map[string]any{
				"title":             "Write report",
				"energy_cost":       6,
				"estimated_minutes": 45,
				"priority":          "high",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown priority",
			body: map[string]any{
				"title":             "Write report",
				"energy_cost":       3,
				"estimated_minutes": 45,
				"priority":          "urgent",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown category",
			body: map[string]any{
				"title":             "Write report",
				"energy_cost":       3,
				"estimated_minutes": 45,
				"priority":          "low",
				"category":          "chores",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "title empty after sanitization",
			body: map[string]any{
				"title":             "   ",
				"energy_cost":       3,
				"estimated_minutes": 45,
				"priority":          "low",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var created *models.Task
			repo := &mockTaskRepo{
				createFunc: func(ctx context.Context, task *models.Task) error {
					created = task
					return nil
				},
			}

			req := newTestRequest("POST", "/tasks", tt.body)
			w := serveAs(t, newTaskRouter(repo), req, user)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				if created != nil {
					t.Error("Expected no task to be created on validation failure")
				}
				return
			}

			if created == nil {
				t.Fatal("Expected task to be persisted")
			}
			if created.UserID != user.ID {
				t.Errorf("Expected task owner %s, got %s", user.ID, created.UserID)
			}
			if created.Priority != models.TaskPriorityHigh {
				t.Errorf("Expected priority high, got %s", created.Priority)
			}
			if created.Category == nil || *created.Category != models.TaskCategoryDeepWork {
				t.Errorf("Expected category deep-work, got %v", created.Category)
			}
		})
	}
}

func TestGetTask_Ownership(t *testing.T) {
	t.Parallel()

	user := testUser()
	other := testUser()
	task := &models.Task{ID: uuid.New(), UserID: other.ID, Title: "theirs"}

	repo := &mockTaskRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Task, error) {
			if id == task.ID {
				return task, nil
			}
			return nil, errors.New("not found")
		},
	}
	router := newTaskRouter(repo)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"invalid id", "/tasks/not-a-uuid", http.StatusBadRequest},
		{"unknown id", "/tasks/" + uuid.NewString(), http.StatusNotFound},
		{"not the owner", "/tasks/" + task.ID.String(), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", tt.path, nil)
			w := serveAs(t, router, req, user)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	user := testUser()

	newTask := func() *models.Task {
		return &models.Task{
			ID:               uuid.New(),
			UserID:           user.ID,
			Title:            "original",
			EnergyCost:       2,
			EstimatedMinutes: 30,
			Priority:         models.TaskPriorityLow,
		}
	}

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		check      func(*testing.T, *models.Task)
	}{
		{
			name:       "partial update",
			body:       map[string]any{"title": "renamed", "completed": true},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, task *models.Task) {
				if task.Title != "renamed" {
					t.Errorf("Expected title 'renamed', got %q", task.Title)
				}
				if !task.Completed {
					t.Error("Expected task to be completed")
				}
				if task.EnergyCost != 2 {
					t.Errorf("Expected energy cost to stay 2, got %d", task.EnergyCost)
				}
			},
		},
		{
			name:       "invalid priority",
			body:       map[string]any{"priority": "urgent"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "energy cost out of range",
			body:       map[string]any{"energy_cost": 0},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "estimated minutes out of range",
			body:       map[string]any{"estimated_minutes": 2000},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "title empty after sanitization",
			body:       map[string]any{"title": "  "},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			task := newTask()
			var updated *models.Task
			repo := &mockTaskRepo{
				getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Task, error) {
					return task, nil
				},
				updateFunc: func(ctx context.Context, t *models.Task) error {
					updated = t
					return nil
				},
			}

			req := newTestRequest("PATCH", "/tasks/"+task.ID.String(), tt.body)
			w := serveAs(t, newTaskRouter(repo), req, user)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.check != nil {
				if updated == nil {
					t.Fatal("Expected update to be persisted")
				}
				tt.check(t, updated)
			}
		})
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	user := testUser()
	task := &models.Task{ID: uuid.New(), UserID: user.ID, Title: "gone"}

	deleted := false
	repo := &mockTaskRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Task, error) {
			return task, nil
		},
		deleteFunc: func(ctx context.Context, id uuid.UUID) error {
			deleted = id == task.ID
			return nil
		},
	}

	req := httptest.NewRequest("DELETE", "/tasks/"+task.ID.String(), nil)
	w := serveAs(t, newTaskRouter(repo), req, user)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", w.Code, w.Body.String())
	}
	if !deleted {
		t.Error("Expected the task to be deleted")
	}
}

func TestToggleTask(t *testing.T) {
	t.Parallel()

	user := testUser()
	task := &models.Task{ID: uuid.New(), UserID: user.ID, Title: "flip", Completed: false}

	repo := &mockTaskRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Task, error) {
			return task, nil
		},
	}
	router := newTaskRouter(repo)

	req := httptest.NewRequest("POST", "/tasks/"+task.ID.String()+"/toggle", nil)
	w := serveAs(t, router, req, user)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var got models.Task
	decodeData(t, w, &got)
	if !got.Completed {
		t.Error("Expected toggle to mark the task completed")
	}

	// Toggling again flips it back
	req = httptest.NewRequest("POST", "/tasks/"+task.ID.String()+"/toggle", nil)
	w = serveAs(t, router, req, user)

	decodeData(t, w, &got)
	if got.Completed {
		t.Error("Expected second toggle to mark the task pending")
	}
}

func boolPtr(b bool) *bool { return &b }
