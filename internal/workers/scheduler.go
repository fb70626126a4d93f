package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daysense/daysense-api/internal/queue"
)

// DefaultReflectionHour is the local hour the daily reflection runs at
const DefaultReflectionHour = 21

// userLister lists the users reflections are scheduled for
type userLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Scheduler enqueues the nightly reflection job for every user
type Scheduler struct {
	jobQueue       queue.JobQueue
	users          userLister
	logger         *zap.Logger
	reflectionHour int
}

// NewScheduler creates a new scheduler
func NewScheduler(jobQueue queue.JobQueue, users userLister, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		jobQueue:       jobQueue,
		users:          users,
		logger:         logger,
		reflectionHour: DefaultReflectionHour,
	}
}

// ScheduleDailyReflections enqueues a reflection job per user for the next
// reflection hour. Jobs expire a day after their scheduled time so stale
// ones land in the DLQ instead of running late.
func (s *Scheduler) ScheduleDailyReflections(ctx context.Context) error {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.reflectionHour, 0, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}

	userIDs, err := s.users.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	scheduled := 0
	for _, userID := range userIDs {
		if err := s.createReflectionJob(ctx, userID, next); err != nil {
			s.logger.Warn("failed_to_schedule_reflection_job",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			continue
		}
		scheduled++
	}

	s.logger.Info("scheduled_reflection_jobs",
		zap.Int("user_count", len(userIDs)),
		zap.Int("scheduled", scheduled),
		zap.Time("next_run", next),
	)

	return nil
}

// createReflectionJob enqueues one reflection job for a user
func (s *Scheduler) createReflectionJob(ctx context.Context, userID uuid.UUID, notBefore time.Time) error {
	job := queue.NewJob(queue.JobTypeDailyReflection, userID)
	job.NotBefore = &notBefore
	job.Metadata["date"] = notBefore.Format("2006-01-02")

	notAfter := notBefore.Add(24 * time.Hour)
	job.NotAfter = &notAfter

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue reflection job: %w", err)
	}

	return nil
}

// SetReflectionHour overrides the local hour reflections are scheduled for
func (s *Scheduler) SetReflectionHour(hour int) {
	if hour >= 0 && hour <= 23 {
		s.reflectionHour = hour
	}
}
