package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daysense/daysense-api/internal/queue"
)

type mockJobQueue struct {
	enqueued []*queue.Job
	err      error
}

func (m *mockJobQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) Dequeue(context.Context) (*queue.Message, error) { return nil, nil }
func (m *mockJobQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, nil
}
func (m *mockJobQueue) Close() error                        { return nil }
func (m *mockJobQueue) HealthCheck(context.Context) error   { return nil }

type mockUserLister struct {
	ids []uuid.UUID
	err error
}

func (m *mockUserLister) ListIDs(context.Context) ([]uuid.UUID, error) {
	return m.ids, m.err
}

func TestScheduler_ScheduleDailyReflections(t *testing.T) {
	t.Parallel()

	q := &mockJobQueue{}
	users := &mockUserLister{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	s := NewScheduler(q, users, zap.NewNop())

	if err := s.ScheduleDailyReflections(context.Background()); err != nil {
		t.Fatalf("ScheduleDailyReflections: %v", err)
	}

	if len(q.enqueued) != 2 {
		t.Fatalf("jobs enqueued = %d, want one per user", len(q.enqueued))
	}
	for _, job := range q.enqueued {
		if job.Type != queue.JobTypeDailyReflection {
			t.Errorf("job type = %s, want daily reflection", job.Type)
		}
		if job.NotBefore == nil || job.NotBefore.Hour() != DefaultReflectionHour {
			t.Errorf("NotBefore = %v, want hour %d", job.NotBefore, DefaultReflectionHour)
		}
		if job.NotBefore.Before(time.Now()) {
			t.Error("NotBefore must be in the future")
		}
		if job.NotAfter == nil || !job.NotAfter.Equal(job.NotBefore.Add(24*time.Hour)) {
			t.Errorf("NotAfter = %v, want a day past NotBefore", job.NotAfter)
		}
		if date, _ := job.Metadata["date"].(string); date != job.NotBefore.Format("2006-01-02") {
			t.Errorf("date metadata = %q, want scheduled day", date)
		}
	}
}

func TestScheduler_ScheduleDailyReflections_ListError(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&mockJobQueue{}, &mockUserLister{err: errors.New("db down")}, zap.NewNop())
	if err := s.ScheduleDailyReflections(context.Background()); err == nil {
		t.Error("expected error when user listing fails")
	}
}

func TestScheduler_ScheduleDailyReflections_EnqueueErrorContinues(t *testing.T) {
	t.Parallel()

	q := &mockJobQueue{err: errors.New("broker down")}
	users := &mockUserLister{ids: []uuid.UUID{uuid.New()}}
	s := NewScheduler(q, users, zap.NewNop())

	// Per-user enqueue failures are logged, not fatal.
	if err := s.ScheduleDailyReflections(context.Background()); err != nil {
		t.Errorf("ScheduleDailyReflections: %v", err)
	}
}
