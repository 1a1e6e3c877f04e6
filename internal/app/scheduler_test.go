package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/relay_bot/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeCleaner struct {
	mu         sync.Mutex
	retentions []time.Duration
	err        error
	calls      chan struct{}
}

func (f *fakeCleaner) CleanupExpired(_ context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	f.retentions = append(f.retentions, retention)
	f.mu.Unlock()
	select {
	case f.calls <- struct{}{}:
	default:
	}
	return 3, f.err
}

func (f *fakeCleaner) seen() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.retentions...)
}

func TestSchedulerSweepReadsLimitsEachTime(t *testing.T) {
	cleaner := &fakeCleaner{calls: make(chan struct{}, 1)}
	limits := config.NewLimitsStore("", config.Limits{RetentionDays: 30})
	s := NewScheduler(cleaner, limits, time.Hour, zap.NewNop())

	s.Sweep(context.Background())

	// подменяем лимиты как это делает Reload
	limits2 := config.NewLimitsStore("", config.Limits{RetentionDays: 7})
	s.limits = limits2
	s.Sweep(context.Background())

	assert.Equal(t, []time.Duration{30 * 24 * time.Hour, 7 * 24 * time.Hour}, cleaner.seen())
}

func TestSchedulerRunsOnIntervalAndStops(t *testing.T) {
	cleaner := &fakeCleaner{calls: make(chan struct{}, 8)}
	limits := config.NewLimitsStore("", config.Limits{RetentionDays: 1})
	s := NewScheduler(cleaner, limits, 10*time.Millisecond, zap.NewNop())

	s.Start(context.Background())

	for i := 0; i < 3; i++ {
		select {
		case <-cleaner.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("sweep %d did not run", i+1)
		}
	}

	s.Stop()
	s.Stop() // повторный Stop безопасен

	assert.GreaterOrEqual(t, len(cleaner.seen()), 3)
}

func TestSchedulerSweepError(t *testing.T) {
	cleaner := &fakeCleaner{calls: make(chan struct{}, 1), err: errors.New("boom")}
	s := NewScheduler(cleaner, config.NewLimitsStore("", config.Limits{RetentionDays: 1}), time.Hour, zap.NewNop())

	// ошибка только логируется
	s.Sweep(context.Background())
	assert.Len(t, cleaner.seen(), 1)
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	cleaner := &fakeCleaner{calls: make(chan struct{}, 1)}
	s := NewScheduler(cleaner, config.NewLimitsStore("", config.Limits{RetentionDays: 1}), time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}
}
