package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockDLQPurger struct {
	purgeFunc func(ctx context.Context, retention time.Duration) (int, error)
}

func (m *mockDLQPurger) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	if m.purgeFunc != nil {
		return m.purgeFunc(ctx, retention)
	}
	return 0, nil
}

func TestGarbageCollector_Collect(t *testing.T) {
	t.Parallel()

	t.Run("nil purger is a no-op", func(t *testing.T) {
		t.Parallel()

		gc := NewGarbageCollector(nil, time.Minute, 24*time.Hour, nil)
		if err := gc.collect(context.Background()); err != nil {
			t.Errorf("collect with nil purger: %v", err)
		}
	})

	t.Run("passes retention through to the purger", func(t *testing.T) {
		t.Parallel()

		var called atomic.Bool
		mock := &mockDLQPurger{
			purgeFunc: func(ctx context.Context, retention time.Duration) (int, error) {
				called.Store(true)
				if retention != 24*time.Hour {
					return 0, errors.New("unexpected retention")
				}
				return 3, nil
			},
		}
		gc := NewGarbageCollector(mock, time.Minute, 24*time.Hour, nil)
		if err := gc.collect(context.Background()); err != nil {
			t.Errorf("collect: %v", err)
		}
		if !called.Load() {
			t.Error("PurgeOlderThan was not called")
		}
	})

	t.Run("purger errors surface", func(t *testing.T) {
		t.Parallel()

		mock := &mockDLQPurger{
			purgeFunc: func(context.Context, time.Duration) (int, error) {
				return 0, errors.New("purge failed")
			},
		}
		gc := NewGarbageCollector(mock, time.Minute, time.Hour, nil)
		if err := gc.collect(context.Background()); err == nil {
			t.Error("expected error from collect")
		}
	})
}

func TestGarbageCollector_Start_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	mock := &mockDLQPurger{purgeFunc: func(context.Context, time.Duration) (int, error) { return 0, nil }}
	gc := NewGarbageCollector(mock, 24*time.Hour, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := gc.Start(ctx); err == nil {
		t.Error("expected context cancelled error")
	}
}
