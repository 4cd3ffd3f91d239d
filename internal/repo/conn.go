package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"MemoGallery/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// sqlitePragmas применяются к каждому новому соединению modernc.org/sqlite.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Conn — единственное на процесс соединение с хранилищем галереи.
// Открывается лениво при первом обращении; повторные вызовы DB возвращают тот же *gorm.DB.
type Conn struct {
	dsn    string
	logger *zap.SugaredLogger

	mu sync.Mutex
	db *gorm.DB
}

// NewConn создаёт закрытое соединение. Ничего не открывает до первого DB.
func NewConn(dsn string, logger *zap.SugaredLogger) *Conn {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Conn{dsn: dsn, logger: logger}
}

// DB возвращает открытое соединение, при необходимости открывая носитель и
// создавая недостающие таблицы. Ошибка открытия не запоминается: следующий вызов
// попробует снова.
func (c *Conn) DB(ctx context.Context) (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return c.db, nil
	}

	db, err := InitDB(ctx, c.dsn)
	if err != nil {
		c.logger.Errorw("failed to open gallery storage", "error", err)
		return nil, model.NewStorageError("open", "", model.ErrStorageUnavailable, err)
	}
	c.db = db
	c.logger.Infow("gallery storage opened", "dialect", db.Dialector.Name(), "schema_version", CurrentSchemaVersion)
	return db, nil
}

// IsOpen сообщает, открыто ли соединение.
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db != nil
}

// Close закрывает соединение. Используется при завершении процесса и в тестах.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	c.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitDB открывает носитель по DSN и применяет схему.
func InitDB(ctx context.Context, dsn string) (*gorm.DB, error) {
	dialector, err := Dialector(dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dialector.Name() == "sqlite" {
		// одно соединение: SQLite всё равно сериализует запись
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Dialector выбирает драйвер по DSN: postgres:// и postgresql:// — PostgreSQL,
// всё остальное — путь к файлу SQLite (modernc, без cgo).
func Dialector(dsn string) (gorm.Dialector, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database DSN")
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.Open(dsn), nil
	}
	if !strings.Contains(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
			return nil, err
		}
	}
	return gormsqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(dsn)}, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}
