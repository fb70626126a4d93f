package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/daysense/daysense-api/internal/models"
)

// mockProfileRepo implements database.ProfileRepositoryInterface for tests
type mockProfileRepo struct {
	getByUserIDFunc     func(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	upsertFunc          func(ctx context.Context, profile *models.UserProfile) error
	setEnergyLevelFunc  func(ctx context.Context, userID uuid.UUID, level int) error
	setNorthStarFunc    func(ctx context.Context, userID uuid.UUID, northStar *string) error
	incrementStreakFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID)
	}
	return nil, errors.New("profile not found")
}

func (m *mockProfileRepo) Upsert(ctx context.Context, profile *models.UserProfile) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, profile)
	}
	return nil
}

func (m *mockProfileRepo) SetEnergyLevel(ctx context.Context, userID uuid.UUID, level int) error {
	if m.setEnergyLevelFunc != nil {
		return m.setEnergyLevelFunc(ctx, userID, level)
	}
	return nil
}

func (m *mockProfileRepo) SetNorthStar(ctx context.Context, userID uuid.UUID, northStar *string) error {
	if m.setNorthStarFunc != nil {
		return m.setNorthStarFunc(ctx, userID, northStar)
	}
	return nil
}

func (m *mockProfileRepo) IncrementStreak(ctx context.Context, userID uuid.UUID) error {
	if m.incrementStreakFunc != nil {
		return m.incrementStreakFunc(ctx, userID)
	}
	return nil
}

func newProfileRouter(repo *mockProfileRepo) *mux.Router {
	r := mux.NewRouter()
	NewProfileHandler(repo).RegisterRoutes(r.PathPrefix("/profile").Subrouter())
	return r
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	user := testUser()

	t.Run("existing profile", func(t *testing.T) {
		t.Parallel()

		northStar := "Ship the release"
		repo := &mockProfileRepo{
			getByUserIDFunc: func(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
				return &models.UserProfile{UserID: userID, EnergyLevel: 4, NorthStar: &northStar, StreakDays: 6}, nil
			},
		}

		req := httptest.NewRequest("GET", "/profile", nil)
		w := serveAs(t, newProfileRouter(repo), req, user)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var got models.UserProfile
		decodeData(t, w, &got)

		if got.EnergyLevel != 4 {
			t.Errorf("Expected energy level 4, got %d", got.EnergyLevel)
		}
		if got.NorthStar == nil || *got.NorthStar != northStar {
			t.Errorf("Expected north star %q, got %v", northStar, got.NorthStar)
		}
		if got.StreakDays != 6 {
			t.Errorf("Expected streak 6, got %d", got.StreakDays)
		}
	})

	t.Run("missing profile is provisioned", func(t *testing.T) {
		t.Parallel()

		var provisioned *models.UserProfile
		repo := &mockProfileRepo{
			upsertFunc: func(ctx context.Context, profile *models.UserProfile) error {
				provisioned = profile
				return nil
			},
		}

		req := httptest.NewRequest("GET", "/profile", nil)
		w := serveAs(t, newProfileRouter(repo), req, user)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if provisioned == nil {
			t.Fatal("Expected the placeholder profile to be persisted")
		}
		if provisioned.UserID != user.ID {
			t.Errorf("Expected provisioned profile for %s, got %s", user.ID, provisioned.UserID)
		}
		if provisioned.EnergyLevel != 3 {
			t.Errorf("Expected placeholder energy level 3, got %d", provisioned.EnergyLevel)
		}
	})

	t.Run("provisioning failure", func(t *testing.T) {
		t.Parallel()

		repo := &mockProfileRepo{
			upsertFunc: func(ctx context.Context, profile *models.UserProfile) error {
				return errors.New("db down")
			},
		}

		req := httptest.NewRequest("GET", "/profile", nil)
		w := serveAs(t, newProfileRouter(repo), req, user)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	user := testUser()

	existing := func() *models.UserProfile {
		goal := "Deep work first"
		return &models.UserProfile{UserID: user.ID, EnergyLevel: 3, NorthStar: &goal}
	}

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		check      func(*testing.T, *models.UserProfile)
	}{
		{
			name:       "set energy level",
			body:       map[string]any{"energy_level": 5},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, p *models.UserProfile) {
				if p.EnergyLevel != 5 {
					t.Errorf("Expected energy level 5, got %d", p.EnergyLevel)
				}
				if p.NorthStar == nil {
					t.Error("Expected north star to be untouched")
				}
			},
		},
		{
			name:       "energy level out of range",
			body:       map[string]any{"energy_level": 9},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "set north star",
			body:       map[string]any{"north_star": "Finish the proposal"},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, p *models.UserProfile) {
				if p.NorthStar == nil || *p.NorthStar != "Finish the proposal" {
					t.Errorf("Expected north star to be updated, got %v", p.NorthStar)
				}
			},
		},
		{
			name:       "empty north star clears it",
			body:       map[string]any{"north_star": "   "},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, p *models.UserProfile) {
				if p.NorthStar != nil {
					t.Errorf("Expected north star to be cleared, got %v", *p.NorthStar)
				}
			},
		},
		{
			name:       "complete onboarding",
			body:       map[string]any{"onboarding_completed": true},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, p *models.UserProfile) {
				if !p.OnboardingCompleted {
					t.Error("Expected onboarding to be completed")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			profile := existing()
			var saved *models.UserProfile
			repo := &mockProfileRepo{
				getByUserIDFunc: func(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
					return profile, nil
				},
				upsertFunc: func(ctx context.Context, p *models.UserProfile) error {
					saved = p
					return nil
				},
			}

			req := newTestRequest("PATCH", "/profile", tt.body)
			w := serveAs(t, newProfileRouter(repo), req, user)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.check != nil {
				if saved == nil {
					t.Fatal("Expected the profile to be saved")
				}
				tt.check(t, saved)
			}
		})
	}
}
