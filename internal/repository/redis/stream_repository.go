package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/domain/repository"
)

const (
	// streamMaxLen - стрим событий не растёт бесконечно, статистике нужны только свежие
	streamMaxLen = 10000

	batchSize           = 10
	defaultBlockTimeout = time.Second

	fieldData = "data"
)

type streamRepository struct {
	client       *redis.Client
	blockTimeout time.Duration
	logger       *zap.Logger
}

// Option настраивает StreamRepository
type Option func(*streamRepository)

// WithBlockTimeout - сколько XREADGROUP ждёт новых сообщений
func WithBlockTimeout(d time.Duration) Option {
	return func(r *streamRepository) {
		if d > 0 {
			r.blockTimeout = d
		}
	}
}

// NewStreamRepository создает репозиторий событий сохранения ферм
func NewStreamRepository(client *redis.Client, logger *zap.Logger, opts ...Option) repository.StreamRepository {
	r := &streamRepository{
		client:       client,
		blockTimeout: defaultBlockTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateConsumerGroup создаёт группу с позиции "0": воркер, поднятый после
// сохранения фермы, всё равно увидит событие
func (r *streamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	switch {
	case err == nil:
		r.logger.Info("Consumer group created",
			zap.String("stream", stream),
			zap.String("group", group))
		return nil
	case strings.HasPrefix(err.Error(), "BUSYGROUP"):
		return nil
	default:
		return fmt.Errorf("create consumer group %s on %s: %w", group, stream, err)
	}
}

// ConsumeStream отдаёт сообщения группы. Сначала перечитываются собственные
// неподтверждённые сообщения потребителя (упавшие при прошлом запуске),
// затем новые.
func (r *streamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	msgChan := make(chan domain.StreamMessage, batchSize)
	log := r.logger.With(zap.String("stream", stream), zap.String("consumer", consumer))

	go func() {
		defer close(msgChan)
		defer log.Info("Stream consumer stopped")

		cursor := "0"
		for ctx.Err() == nil {
			messages, err := r.readBatch(ctx, stream, group, consumer, cursor)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error("Failed to read from stream", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			if cursor != ">" && len(messages) == 0 {
				cursor = ">"
				continue
			}

			for _, msg := range messages {
				data, ok := msg.Values[fieldData].(string)
				if !ok {
					log.Warn("Stream message without data field", zap.String("message_id", msg.ID))
					continue
				}
				select {
				case msgChan <- domain.StreamMessage{ID: msg.ID, Data: data}:
				case <-ctx.Done():
					return
				}
			}

			// история pending листается по ID, затем только новые сообщения
			if cursor != ">" {
				cursor = messages[len(messages)-1].ID
			}
		}
	}()

	return msgChan, nil
}

func (r *streamRepository) readBatch(ctx context.Context, stream, group, consumer, cursor string) ([]redis.XMessage, error) {
	args := &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, cursor},
		Count:    batchSize,
		Block:    r.blockTimeout,
	}
	if cursor != ">" {
		// история pending читается без блокировки
		args.Block = -1
	}

	result, err := r.client.XReadGroup(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []redis.XMessage
	for _, s := range result {
		out = append(out, s.Messages...)
	}
	return out, nil
}

// AckMessage подтверждает обработку сообщения
func (r *streamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	if err := r.client.XAck(ctx, stream, group, messageID).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", messageID, err)
	}
	return nil
}

// Pending - число выданных, но не подтверждённых сообщений группы
func (r *streamRepository) Pending(ctx context.Context, stream, group string) (int64, error) {
	res, err := r.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return 0, fmt.Errorf("pending %s/%s: %w", stream, group, err)
	}
	return res.Count, nil
}

// PublishToStream сериализует событие в JSON и добавляет его в стрим
func (r *streamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal stream event: %w", err)
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{fieldData: string(payload)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", stream, err)
	}

	r.logger.Debug("Event published",
		zap.String("stream", stream),
		zap.String("message_id", id))
	return nil
}
