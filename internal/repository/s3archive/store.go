// Package s3archive хранит исходные файлы импорта в S3-совместимом бакете
// (AWS S3 или MinIO)
package s3archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/config"
	"github.com/talhao-editor/internal/domain/repository"
)

type Store struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// New создает архив из конфигурации. Учётные данные берутся из стандартной
// цепочки AWS (AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY, профиль, роль).
func New(ctx context.Context, cfg *config.ArchiveConfig, logger *zap.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info("Import archive enabled",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", region),
		zap.String("endpoint", cfg.Endpoint))

	return NewWithClient(client, cfg.Bucket, logger), nil
}

// NewWithClient оборачивает готовый клиент (тесты, MinIO)
func NewWithClient(client *s3.Client, bucket string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, bucket: bucket, logger: logger}
}

var _ repository.ArchiveRepository = (*Store)(nil)

// Put загружает файл. Повторная загрузка под тем же ключом перезаписывает объект.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("Failed to archive import file",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Debug("Import file archived",
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return nil
}

// ImportKey - ключ объекта: imports/ГГГГ/ММ/ДД/<id>-<имя файла>
func ImportKey(importID uuid.UUID, filename string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return path.Join("imports", at.UTC().Format("2006/01/02"), importID.String()+"-"+name)
}
