package worker

import (
	"sync"

	"go.uber.org/zap"
)

// BaseWorker - общая часть воркеров, читающих Redis Stream через consumer group
type BaseWorker struct {
	name          string
	stream        string
	consumerGroup string
	logger        *zap.Logger

	mu       sync.Mutex
	stopChan chan struct{}
	stopped  bool
}

// NewBaseWorker создает новый BaseWorker
func NewBaseWorker(name, stream, consumerGroup string, logger *zap.Logger) *BaseWorker {
	return &BaseWorker{
		name:          name,
		stream:        stream,
		consumerGroup: consumerGroup,
		logger:        logger.With(zap.String("worker", name), zap.String("stream", stream)),
		stopChan:      make(chan struct{}),
	}
}

// Name возвращает имя воркера
func (w *BaseWorker) Name() string {
	return w.name
}

// Stream - стрим, из которого читает воркер
func (w *BaseWorker) Stream() string {
	return w.stream
}

// Stop останавливает воркер. Повторный вызов ничего не делает.
func (w *BaseWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.logger.Info("Stopping worker")
	close(w.stopChan)
	w.stopped = true

	return nil
}

// IsStopped проверяет, остановлен ли воркер
func (w *BaseWorker) IsStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// StopChan возвращает канал остановки
func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

// ConsumerGroup возвращает имя consumer group
func (w *BaseWorker) ConsumerGroup() string {
	return w.consumerGroup
}

// Logger возвращает логгер с именем воркера и стрима
func (w *BaseWorker) Logger() *zap.Logger {
	return w.logger
}
