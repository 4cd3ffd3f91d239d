package service

import (
	"context"
	"math/rand/v2"
	"time"

	"MemoGallery/internal/metrics"
	"MemoGallery/internal/model"
	"MemoGallery/internal/repo"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Gallery — единая точка входа в локальное хранилище медиа.
// Все методы безопасны для конкурентного вызова.
type Gallery struct {
	conn   *repo.Conn
	agg    *Aggregator
	logger *zap.SugaredLogger

	now          func() time.Time
	pick         func(n int) int
	maxBlobBytes int64
}

// Option настраивает Gallery.
type Option func(*Gallery)

// WithClock подменяет источник времени для createdAt.
func WithClock(now func() time.Time) Option {
	return func(g *Gallery) { g.now = now }
}

// WithColorPicker подменяет выбор цвета категории: pick(n) возвращает индекс в палитре.
func WithColorPicker(pick func(n int) int) Option {
	return func(g *Gallery) { g.pick = pick }
}

// WithMaxBlobBytes ограничивает размер содержимого одной записи; 0 — без ограничения.
func WithMaxBlobBytes(n int64) Option {
	return func(g *Gallery) { g.maxBlobBytes = n }
}

// NewGallery создаёт фасад поверх единственного соединения процесса.
func NewGallery(conn *repo.Conn, logger *zap.SugaredLogger, opts ...Option) *Gallery {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	g := &Gallery{
		conn:   conn,
		agg:    NewAggregator(logger),
		logger: logger,
		now:    time.Now,
		pick:   rand.IntN,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Open открывает хранилище заранее. Остальные методы делают это сами при первом вызове.
func (g *Gallery) Open(ctx context.Context) error {
	_, err := g.conn.DB(ctx)
	return err
}

// WipeAll удаляет все записи, содержимое и категории. Необратимо.
func (g *Gallery) WipeAll(ctx context.Context) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("wipe_all", started, err) }()

	db, err := g.conn.DB(ctx)
	if err != nil {
		return err
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.NewMediaRepository(tx).DeleteAll(ctx); err != nil {
			return err
		}
		if err := repo.NewBlobRepository(tx).DeleteAll(ctx); err != nil {
			return err
		}
		return repo.NewCategoryRepository(tx).DeleteAll(ctx)
	})
	if err != nil {
		g.logger.Errorw("failed to wipe gallery", "error", err)
		return model.NewStorageError("wipe_all", "", model.ErrStorageWrite, err)
	}
	metrics.CategoryOrphans.Set(0)
	g.logger.Infow("gallery wiped")
	return nil
}

// recount синхронно пересчитывает счётчики после изменения состава категорий.
// Изменение op к этому моменту уже записано.
func (g *Gallery) recount(ctx context.Context, db *gorm.DB, op string) (Tally, error) {
	tally, err := g.agg.Recompute(ctx, db)
	if err != nil {
		g.logger.Warnw("category counts left stale", "after", op, "error", err)
		return tally, model.NewStorageError(op, "", model.ErrCountsStale, err)
	}
	return tally, nil
}

// RecomputeCounts пересчитывает счётчики всех категорий по текущим записям.
func (g *Gallery) RecomputeCounts(ctx context.Context) (tally Tally, err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("recompute_counts", started, err) }()

	db, err := g.conn.DB(ctx)
	if err != nil {
		return Tally{}, err
	}
	tally, err = g.agg.Recompute(ctx, db)
	if err != nil {
		g.logger.Errorw("failed to recompute category counts", "error", err)
		return tally, model.NewStorageError("recompute_counts", "", model.ErrStorageWrite, err)
	}
	return tally, nil
}
