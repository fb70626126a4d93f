package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/daysense/daysense-api/internal/models"
)

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, completed *bool) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EnergyEntryRepositoryInterface defines the interface for timeline operations
type EnergyEntryRepositoryInterface interface {
	Append(ctx context.Context, entry *models.EnergyEntry) error
	GetTimelineForDay(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.EnergyEntry, error)
	LatestLevel(ctx context.Context, userID uuid.UUID) (int, error)
}

// FlowScoreRepositoryInterface defines the interface for flow score history
type FlowScoreRepositoryInterface interface {
	Upsert(ctx context.Context, record *models.FlowScoreRecord) error
	GetByDate(ctx context.Context, userID uuid.UUID, date string) (*models.FlowScoreRecord, error)
	GetRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.FlowScoreRecord, error)
}

// ProfileRepositoryInterface defines the interface for profile operations
type ProfileRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
	SetEnergyLevel(ctx context.Context, userID uuid.UUID, level int) error
	SetNorthStar(ctx context.Context, userID uuid.UUID, northStar *string) error
	IncrementStreak(ctx context.Context, userID uuid.UUID) error
}

// SignalSnapshotRepositoryInterface defines the interface for the latest
// behavioral snapshot per user
type SignalSnapshotRepositoryInterface interface {
	Upsert(ctx context.Context, userID uuid.UUID, signals models.BehavioralSignals, sampledAt time.Time) error
	GetLatest(ctx context.Context, userID uuid.UUID) (*models.BehavioralSignals, error)
}

// ReflectionRepositoryInterface defines the interface for reflection storage
type ReflectionRepositoryInterface interface {
	Upsert(ctx context.Context, reflection *models.Reflection) error
	GetByDate(ctx context.Context, userID uuid.UUID, date string) (*models.Reflection, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface           = (*TaskRepository)(nil)
	_ EnergyEntryRepositoryInterface    = (*EnergyEntryRepository)(nil)
	_ FlowScoreRepositoryInterface      = (*FlowScoreRepository)(nil)
	_ ProfileRepositoryInterface        = (*ProfileRepository)(nil)
	_ ReflectionRepositoryInterface     = (*ReflectionRepository)(nil)
	_ SignalSnapshotRepositoryInterface = (*SignalSnapshotRepository)(nil)
)
