package repository

import (
	"context"

	"github.com/talhao-editor/internal/domain"
)

// StreamRepository - стрим событий сохранения ферм (Redis Streams)
type StreamRepository interface {
	// ConsumeStream отдаёт сначала неподтверждённые сообщения потребителя, затем новые
	ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)
	AckMessage(ctx context.Context, stream, group, messageID string) error
	CreateConsumerGroup(ctx context.Context, stream, group string) error
	// Pending - сколько сообщений группы ждут подтверждения
	Pending(ctx context.Context, stream, group string) (int64, error)
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
