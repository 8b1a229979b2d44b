package worker

import (
	"context"
)

// Worker - фоновый обработчик событий
type Worker interface {
	// Start блокирует до остановки или отмены ctx
	Start(ctx context.Context) error

	// Stop сигнализирует воркеру завершиться
	Stop() error

	// Name возвращает имя воркера
	Name() string
}
