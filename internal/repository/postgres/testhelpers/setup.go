package testhelpers

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/config"
	"github.com/talhao-editor/internal/domain/repository"
	"github.com/talhao-editor/internal/repository/postgres"
)

// TestDB - тестовая база с применённой схемой
type TestDB struct {
	DB     *postgres.DB
	Logger *zap.Logger
}

// SetupTestDB подключается к тестовой БД и применяет миграции.
// Если база недоступна, тест пропускается.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	port, _ := strconv.Atoi(getEnv("TEST_DB_PORT", "5433"))
	cfg := config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBName:   getEnv("TEST_DB_NAME", "talhao_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	sqlDB, err := connect(cfg.DSN())
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	logger := zap.NewNop()
	tdb := &TestDB{DB: postgres.NewDBForTest(sqlDB, logger), Logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tdb.DB.Migrate(ctx); err != nil {
		sqlDB.Close()
		t.Fatalf("migrate test database: %v", err)
	}
	return tdb
}

// База может подниматься в соседнем контейнере
func connect(dsn string) (*sqlx.DB, error) {
	delay := 200 * time.Millisecond
	var err error
	for i := 0; i < 3; i++ {
		var db *sqlx.DB
		if db, err = sqlx.Connect("postgres", dsn); err == nil {
			return db, nil
		}
		time.Sleep(delay)
		delay *= 2
	}
	return nil, err
}

func (tdb *TestDB) FarmRepository() repository.FarmRepository {
	return postgres.NewFarmRepository(tdb.DB)
}

func (tdb *TestDB) StatsRepository() repository.StatsRepository {
	return postgres.NewStatsRepository(tdb.DB, tdb.Logger)
}

func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

// Cleanup очищает таблицы между тестами
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	_, err := tdb.DB.ExecContext(ctx, "TRUNCATE TABLE farms RESTART IDENTITY")
	return err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
