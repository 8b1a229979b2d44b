package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Log        LogConfig
	Worker     WorkerConfig
	Projection ProjectionConfig
	Editor     EditorConfig
	Archive    ArchiveConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	MaxUploadMB int
	CORSOrigins string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	FarmCacheTTL  time.Duration
	StatsCacheTTL time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
}

// ProjectionConfig - система координат, в которой приходят метрические файлы
type ProjectionConfig struct {
	UTMZone int
	South   bool
}

type EditorConfig struct {
	SessionTTL  time.Duration
	MaxFeatures int
}

// ArchiveConfig - хранение исходных файлов импорта в S3
type ArchiveConfig struct {
	Enabled   bool
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("PROJECTION_UTM_ZONE", 24)
	viper.SetDefault("PROJECTION_SOUTH", true)

	if err := viper.ReadInConfig(); err != nil {
		// без .env работаем только на переменных окружения
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        viper.GetString("API_HOST"),
			Port:        viper.GetInt("API_PORT"),
			Env:         viper.GetString("API_ENV"),
			MaxUploadMB: viper.GetInt("API_MAX_UPLOAD_MB"),
			CORSOrigins: viper.GetString("API_CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			FarmCacheTTL:  time.Duration(viper.GetInt("FARM_CACHE_TTL")) * time.Second,
			StatsCacheTTL: time.Duration(viper.GetInt("STATS_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
		},
		Projection: ProjectionConfig{
			UTMZone: viper.GetInt("PROJECTION_UTM_ZONE"),
			South:   viper.GetBool("PROJECTION_SOUTH"),
		},
		Editor: EditorConfig{
			SessionTTL:  time.Duration(viper.GetInt("EDITOR_SESSION_TTL")) * time.Second,
			MaxFeatures: viper.GetInt("EDITOR_MAX_FEATURES"),
		},
		Archive: ArchiveConfig{
			Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
			Bucket:    viper.GetString("ARCHIVE_S3_BUCKET"),
			Region:    viper.GetString("ARCHIVE_S3_REGION"),
			Endpoint:  viper.GetString("ARCHIVE_S3_ENDPOINT"),
			PathStyle: viper.GetBool("ARCHIVE_S3_PATH_STYLE"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if cfg.Server.CORSOrigins == "" {
		cfg.Server.CORSOrigins = "http://localhost:3000,http://localhost:5173"
	}
	if cfg.Cache.FarmCacheTTL == 0 {
		cfg.Cache.FarmCacheTTL = 10 * time.Minute
	}
	if cfg.Cache.StatsCacheTTL == 0 {
		cfg.Cache.StatsCacheTTL = time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Worker.ConsumerGroup == "" {
		cfg.Worker.ConsumerGroup = "farm-stats-workers"
	}
	if cfg.Worker.StreamReadTimeout == 0 {
		cfg.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Editor.SessionTTL == 0 {
		cfg.Editor.SessionTTL = 2 * time.Hour
	}
	if cfg.Editor.MaxFeatures == 0 {
		cfg.Editor.MaxFeatures = 5000
	}
	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "us-east-1"
	}
}

// Validate проверяет значения, без которых сервис не стартует
func (c *Config) Validate() error {
	if c.Projection.UTMZone < 1 || c.Projection.UTMZone > 60 {
		return fmt.Errorf("invalid PROJECTION_UTM_ZONE %d: must be 1..60", c.Projection.UTMZone)
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return errors.New("ARCHIVE_S3_BUCKET is required when ARCHIVE_ENABLED=true")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN - строка подключения к Postgres
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MaxUploadBytes - лимит размера загружаемого файла
func (c *Config) MaxUploadBytes() int {
	return c.Server.MaxUploadMB * 1024 * 1024
}
