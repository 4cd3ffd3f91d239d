package repo

import (
	"context"
	"errors"

	"MemoGallery/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryRepository — контракт доступа к каталогу категорий.
type CategoryRepository interface {
	// Put записывает категорию; существующая с тем же id заменяется целиком.
	Put(ctx context.Context, c *model.Category) error
	// Get возвращает категорию или nil.
	Get(ctx context.Context, id string) (*model.Category, error)
	// List возвращает все категории, отсортированные по имени.
	List(ctx context.Context) ([]model.Category, error)
	// SetCount перезаписывает кэшированный счётчик.
	SetCount(ctx context.Context, id string, count int) error
	// Delete удаляет только строку категории, записи галереи не трогает.
	Delete(ctx context.Context, id string) error
	// DeleteAll очищает таблицу.
	DeleteAll(ctx context.Context) error
}

type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository создаёт реализацию репозитория для Category.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Put(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(c).Error
}

func (r *categoryRepo) Get(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).Take(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	err := r.db.WithContext(ctx).Order("name").Order("id").Find(&list).Error
	return list, err
}

func (r *categoryRepo) SetCount(ctx context.Context, id string, count int) error {
	return r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).UpdateColumn("count", count).Error
}

func (r *categoryRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Category{}).Error
}

func (r *categoryRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Category{}).Error
}
