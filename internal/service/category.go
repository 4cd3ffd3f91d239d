package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"MemoGallery/internal/metrics"
	"MemoGallery/internal/model"
	"MemoGallery/internal/repo"
)

// Palette — цвета новых категорий.
var Palette = []string{"#8B5CF6", "#EC4899", "#F59E0B", "#10B981", "#3B82F6", "#EF4444"}

var spaceRun = regexp.MustCompile(`[\s\x{00A0}\x{FEFF}\p{Z}]+`)

// CategoryID выводит идентификатор категории из имени: нижний регистр,
// последовательности пробелов заменяются на "-".
func CategoryID(name string) string {
	return spaceRun.ReplaceAllString(strings.ToLower(name), "-")
}

// CreateCategory создаёт категорию с count = 0. Если категория с тем же id уже
// есть, она заменяется целиком.
func (g *Gallery) CreateCategory(ctx context.Context, name string) (c model.Category, err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("create_category", started, err) }()

	if strings.TrimSpace(name) == "" {
		return model.Category{}, model.Invalid("empty category name")
	}
	c = model.Category{
		ID:    CategoryID(name),
		Name:  name,
		Color: Palette[g.pick(len(Palette))],
	}
	db, err := g.conn.DB(ctx)
	if err != nil {
		return model.Category{}, err
	}
	cats := repo.NewCategoryRepository(db)
	prev, err := cats.Get(ctx, c.ID)
	if err != nil {
		return model.Category{}, model.NewStorageError("create_category", c.ID, model.ErrStorageRead, err)
	}
	if prev != nil {
		g.logger.Warnw("category replaced by name collision", "id", c.ID, "old_name", prev.Name, "new_name", name)
	}
	if err := cats.Put(ctx, &c); err != nil {
		g.logger.Errorw("failed to create category", "id", c.ID, "error", err)
		return model.Category{}, model.NewStorageError("create_category", c.ID, model.ErrStorageWrite, err)
	}
	tally, err := g.recount(ctx, db, "create_category")
	if err != nil {
		return c, err
	}
	c.Count = tally.Counts[c.ID]
	g.logger.Infow("category created", "id", c.ID, "name", name, "color", c.Color)
	return c, nil
}

// ListCategories возвращает все категории, упорядоченные по имени.
func (g *Gallery) ListCategories(ctx context.Context) (list []model.Category, err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("list_categories", started, err) }()

	db, err := g.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	list, err = repo.NewCategoryRepository(db).List(ctx)
	if err != nil {
		return nil, model.NewStorageError("list_categories", "", model.ErrStorageRead, err)
	}
	return list, nil
}

// DeleteCategory удаляет только категорию: её записи остаются и становятся «без категории».
func (g *Gallery) DeleteCategory(ctx context.Context, id string) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("delete_category", started, err) }()

	db, err := g.conn.DB(ctx)
	if err != nil {
		return err
	}
	if err := repo.NewCategoryRepository(db).Delete(ctx, id); err != nil {
		g.logger.Errorw("failed to delete category", "id", id, "error", err)
		return model.NewStorageError("delete_category", id, model.ErrStorageWrite, err)
	}
	_, err = g.recount(ctx, db, "delete_category")
	return err
}
