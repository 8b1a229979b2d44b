package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	defaultRestartDelay    = 5 * time.Second
)

// WorkerManager запускает воркеры и перезапускает упавшие, пока его не остановят
type WorkerManager struct {
	workers []Worker
	logger  *zap.Logger
	wg      sync.WaitGroup

	mu              sync.Mutex
	shutdownTimeout time.Duration
	restartDelay    time.Duration
	done            chan struct{}
	stopped         bool
}

// NewWorkerManager создает новый WorkerManager
func NewWorkerManager(logger *zap.Logger) *WorkerManager {
	return &WorkerManager{
		logger:          logger,
		shutdownTimeout: defaultShutdownTimeout,
		restartDelay:    defaultRestartDelay,
		done:            make(chan struct{}),
	}
}

// SetShutdownTimeout меняет время ожидания остановки воркеров
func (m *WorkerManager) SetShutdownTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownTimeout = d
}

// SetRestartDelay меняет паузу перед перезапуском упавшего воркера
func (m *WorkerManager) SetRestartDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restartDelay = d
}

// Len - число зарегистрированных воркеров
func (m *WorkerManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = append(m.workers, w)
	m.logger.Info("Worker registered", zap.String("name", w.Name()))
}

// Start запускает все зарегистрированные воркеры и сразу возвращается
func (m *WorkerManager) Start(ctx context.Context) error {
	m.mu.Lock()
	workers := append([]Worker(nil), m.workers...)
	delay := m.restartDelay
	m.mu.Unlock()

	if len(workers) == 0 {
		return fmt.Errorf("no workers registered")
	}

	m.logger.Info("Starting workers", zap.Int("count", len(workers)))
	for _, w := range workers {
		m.wg.Add(1)
		go m.supervise(ctx, w, delay)
	}
	return nil
}

// supervise держит воркер запущенным. Ошибка (например, закрытый канал после
// рестарта Redis) ведёт к перезапуску; отмена ctx или Stop - к выходу.
func (m *WorkerManager) supervise(ctx context.Context, w Worker, delay time.Duration) {
	defer m.wg.Done()
	log := m.logger.With(zap.String("name", w.Name()))

	for attempt := 1; ; attempt++ {
		log.Info("Starting worker", zap.Int("attempt", attempt))
		err := w.Start(ctx)
		if err == nil || errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		log.Error("Worker failed", zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-time.After(delay):
		}
	}
}

// Stop останавливает все воркеры и ждёт их не дольше shutdownTimeout
func (m *WorkerManager) Stop() error {
	m.mu.Lock()
	workers := append([]Worker(nil), m.workers...)
	timeout := m.shutdownTimeout
	if !m.stopped {
		close(m.done)
		m.stopped = true
	}
	m.mu.Unlock()

	m.logger.Info("Stopping workers", zap.Int("count", len(workers)))
	for _, w := range workers {
		if err := w.Stop(); err != nil {
			m.logger.Error("Failed to stop worker",
				zap.String("name", w.Name()),
				zap.Error(err))
		}
	}

	finished := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		m.logger.Info("All workers stopped gracefully")
		return nil
	case <-time.After(timeout):
		m.logger.Warn("Workers shutdown timed out, unacked events will be redelivered",
			zap.Duration("timeout", timeout))
		return fmt.Errorf("workers shutdown timed out after %v", timeout)
	}
}
