package repo

import (
	"context"
	"errors"

	"MemoGallery/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MediaRepository — контракт доступа к метаданным записей галереи.
type MediaRepository interface {
	// Put создаёт или полностью перезаписывает метаданные m.ID.
	Put(ctx context.Context, m *model.Media) error
	// Get возвращает метаданные или nil, если записи нет.
	Get(ctx context.Context, id string) (*model.Media, error)
	// List возвращает все записи без сортировки.
	List(ctx context.Context) ([]model.Media, error)
	// ListByCategory выбирает записи категории через idx_media_category.
	ListByCategory(ctx context.Context, category string) ([]model.Media, error)
	// Categories возвращает значение category для каждой записи (с повторами).
	Categories(ctx context.Context) ([]string, error)
	// SetFavorite меняет только флаг избранного. found=false, если записи нет.
	SetFavorite(ctx context.Context, id string, value bool) (found bool, err error)
	// Delete удаляет метаданные; отсутствие записи не ошибка.
	Delete(ctx context.Context, id string) error
	// DeleteAll очищает таблицу.
	DeleteAll(ctx context.Context) error
}

type mediaRepo struct {
	db *gorm.DB
}

// NewMediaRepository создаёт реализацию репозитория для Media.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepo{db: db}
}

func (r *mediaRepo) Put(ctx context.Context, m *model.Media) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(m).Error
}

func (r *mediaRepo) Get(ctx context.Context, id string) (*model.Media, error) {
	var m model.Media
	err := r.db.WithContext(ctx).Take(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mediaRepo) List(ctx context.Context) ([]model.Media, error) {
	var list []model.Media
	err := r.db.WithContext(ctx).Find(&list).Error
	return list, err
}

func (r *mediaRepo) ListByCategory(ctx context.Context, category string) ([]model.Media, error) {
	var list []model.Media
	err := r.db.WithContext(ctx).Where("category = ?", category).Find(&list).Error
	return list, err
}

func (r *mediaRepo) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.db.WithContext(ctx).Model(&model.Media{}).Pluck("category", &cats).Error
	return cats, err
}

func (r *mediaRepo) SetFavorite(ctx context.Context, id string, value bool) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&model.Media{}).Where("id = ?", id).UpdateColumn("favorite", value)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *mediaRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Media{}).Error
}

func (r *mediaRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Media{}).Error
}
