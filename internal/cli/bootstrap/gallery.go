package bootstrap

import (
	"context"
	"fmt"

	"MemoGallery/internal/config"
	"MemoGallery/internal/repo"
	"MemoGallery/internal/service"

	"go.uber.org/zap"
)

// Logger возвращает логгер CLI: только предупреждения и ошибки, в stderr.
func Logger() *zap.SugaredLogger {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	zc.DisableStacktrace = true
	l, err := zc.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// OpenGallery открывает хранилище по cfg.DatabaseDSN и создаёт схему при первом запуске.
// cleanup необходимо вызвать после окончания работы, чтобы закрыть соединение с БД.
func OpenGallery(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*service.Gallery, func() error, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	conn := repo.NewConn(cfg.DatabaseDSN, logger)
	g := service.NewGallery(conn, logger, service.WithMaxBlobBytes(cfg.BlobMaxBytes()))
	if err := g.Open(ctx); err != nil {
		return nil, nil, fmt.Errorf("open gallery %s: %w", cfg.DatabaseDSN, err)
	}
	return g, conn.Close, nil
}
