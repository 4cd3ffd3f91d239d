package service

import (
	"context"

	"MemoGallery/internal/metrics"
	"MemoGallery/internal/repo"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Tally — результат пересчёта: записанные счётчики и число записей без категории.
type Tally struct {
	Counts  map[string]int
	Orphans int
}

// Aggregator пересчитывает кэшированные счётчики категорий по фактическим записям.
// Пересчёт всегда читает текущее состояние, поэтому повторный или конкурентный
// вызов безопасен.
type Aggregator struct {
	logger *zap.SugaredLogger
}

func NewAggregator(logger *zap.SugaredLogger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Histogram считает вхождения каждой категории.
func Histogram(categories []string) map[string]int {
	h := make(map[string]int, len(categories))
	for _, c := range categories {
		h[c]++
	}
	return h
}

// Recompute читает все записи и все категории и в одной транзакции записывает
// count = число записей категории (0, если их нет). Категории не удаляются;
// записи с несуществующей категорией попадают только в Orphans.
func (a *Aggregator) Recompute(ctx context.Context, db *gorm.DB) (Tally, error) {
	tally := Tally{Counts: map[string]int{}}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cats := repo.NewCategoryRepository(tx)
		list, err := cats.List(ctx)
		if err != nil {
			return err
		}
		memberships, err := repo.NewMediaRepository(tx).Categories(ctx)
		if err != nil {
			return err
		}
		hist := Histogram(memberships)
		for _, c := range list {
			n := hist[c.ID]
			if err := cats.SetCount(ctx, c.ID, n); err != nil {
				return err
			}
			tally.Counts[c.ID] = n
			delete(hist, c.ID)
		}
		for _, n := range hist {
			tally.Orphans += n
		}
		return nil
	})
	if err != nil {
		return Tally{}, err
	}
	metrics.CategoryOrphans.Set(float64(tally.Orphans))
	a.logger.Debugw("category counts recomputed", "categories", len(tally.Counts), "orphans", tally.Orphans)
	return tally, nil
}
