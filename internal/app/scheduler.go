package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/relay_bot/internal/config"
	"go.uber.org/zap"
)

// RetentionCleaner удаляет сообщения старше окна хранения
type RetentionCleaner interface {
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// LimitsSource отдаёт актуальные лимиты (перечитываются без рестарта)
type LimitsSource interface {
	Limits() config.Limits
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	cleaner  RetentionCleaner
	limits   LimitsSource
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(cleaner RetentionCleaner, limits LimitsSource, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cleaner:  cleaner,
		limits:   limits,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("cleanup_interval", s.interval))

	go s.runCleanupTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущей очистки
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	<-s.done
}

// runCleanupTask периодически удаляет просроченные сообщения
func (s *Scheduler) runCleanupTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Cleanup task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Cleanup task cancelled")
			return
		}
	}
}

// Sweep выполняет один проход очистки с окном хранения, прочитанным прямо сейчас
func (s *Scheduler) Sweep(ctx context.Context) {
	retention := s.limits.Limits().Retention()

	deleted, err := s.cleaner.CleanupExpired(ctx, retention)
	if err != nil {
		s.logger.Error("Failed to cleanup expired messages", zap.Error(err))
		return
	}

	s.logger.Info("Expired messages cleaned up",
		zap.Int64("deleted", deleted),
		zap.Duration("retention", retention),
	)
}
