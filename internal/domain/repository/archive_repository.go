package repository

import (
	"context"
)

// ArchiveRepository хранит исходные файлы импорта
type ArchiveRepository interface {
	// Put сохраняет файл под ключом key
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
