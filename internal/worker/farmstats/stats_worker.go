package farmstats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/domain/repository"
	"github.com/talhao-editor/internal/worker"
)

const workerName = "farm-stats"

// retryDelay - пауза между попытками пересчёта
var retryDelay = 500 * time.Millisecond

// StatsRefresher пересчитывает статистику владельцев
type StatsRefresher interface {
	RefreshOwnerStats(ctx context.Context) (*domain.OwnerStats, error)
}

// Worker пересчитывает статистику владельцев после каждого сохранения фермы
type Worker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	stats        StatsRefresher
	consumerName string
	maxRetries   int
}

// NewWorker создает воркер статистики
func NewWorker(
	streamRepo repository.StreamRepository,
	stats StatsRefresher,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *Worker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Worker{
		BaseWorker:   worker.NewBaseWorker(workerName, domain.StreamFarmSaved, consumerGroup, logger),
		streamRepo:   streamRepo,
		stats:        stats,
		consumerName: consumerName,
		maxRetries:   maxRetries,
	}
}

// Start запускает воркер
func (w *Worker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting farm stats worker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName))

	if err := w.streamRepo.CreateConsumerGroup(ctx, w.Stream(), w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	if pending, err := w.streamRepo.Pending(ctx, w.Stream(), w.ConsumerGroup()); err != nil {
		logger.Warn("Failed to read pending backlog", zap.Error(err))
	} else if pending > 0 {
		logger.Info("Pending events will be redelivered", zap.Int64("pending", pending))
	}

	msgChan, err := w.streamRepo.ConsumeStream(ctx, w.Stream(), w.ConsumerGroup(), w.consumerName)
	if err != nil {
		logger.Error("Failed to consume stream", zap.Error(err))
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		case msg, ok := <-msgChan:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("Message channel closed")
				return fmt.Errorf("message channel closed")
			}

			if err := w.processMessage(ctx, msg); err != nil {
				// без ACK событие останется в pending и будет прочитано снова
				logger.Error("Failed to process message",
					zap.String("message_id", msg.ID),
					zap.Error(err))
				continue
			}

			if err := w.streamRepo.AckMessage(ctx, w.Stream(), w.ConsumerGroup(), msg.ID); err != nil {
				logger.Error("Failed to acknowledge message",
					zap.String("message_id", msg.ID),
					zap.Error(err))
			}
		}
	}
}

// processMessage пересчитывает статистику по событию сохранения.
// Битое событие подтверждается и пропускается.
func (w *Worker) processMessage(ctx context.Context, msg domain.StreamMessage) error {
	logger := w.Logger()

	var event domain.FarmSavedEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		logger.Error("Failed to unmarshal event",
			zap.String("message_id", msg.ID),
			zap.String("raw_data", msg.Data),
			zap.Error(err))
		return nil
	}

	logger.Info("Processing farm saved event",
		zap.Int64("farm_id", event.FarmID),
		zap.String("owner", event.Owner),
		zap.Bool("updated", event.Updated),
		zap.Float64("area_ha", event.AreaHa))

	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		stats, err := w.stats.RefreshOwnerStats(ctx)
		if err == nil {
			logger.Info("Owner stats refreshed",
				zap.Int64("farm_id", event.FarmID),
				zap.Int("farms", stats.FarmCount),
				zap.Float64("total_ha", stats.TotalHa))
			return nil
		}

		lastErr = err
		logger.Warn("Owner stats refresh failed",
			zap.Int64("farm_id", event.FarmID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < w.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay * time.Duration(attempt)):
			}
		}
	}
	return fmt.Errorf("refresh owner stats after %d attempts: %w", w.maxRetries, lastErr)
}
