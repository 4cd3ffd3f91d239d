package repo

import (
	"context"
	"errors"

	"MemoGallery/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlobRepository — контракт доступа к бинарному содержимому записей.
type BlobRepository interface {
	// Put создаёт или полностью перезаписывает содержимое id.
	Put(ctx context.Context, id string, data []byte) error
	// Get возвращает содержимое или nil, если записи нет.
	Get(ctx context.Context, id string) (*model.Blob, error)
	// ListIDs возвращает ключи всех сохранённых blob-ов.
	ListIDs(ctx context.Context) ([]string, error)
	// Delete удаляет содержимое; отсутствие записи не ошибка.
	Delete(ctx context.Context, id string) error
	// DeleteMany удаляет пачку ключей одним запросом.
	DeleteMany(ctx context.Context, ids []string) error
	// DeleteAll очищает таблицу.
	DeleteAll(ctx context.Context) error
}

type blobRepo struct {
	db *gorm.DB
}

// NewBlobRepository создаёт реализацию репозитория для Blob.
// db может быть транзакцией.
func NewBlobRepository(db *gorm.DB) BlobRepository {
	return &blobRepo{db: db}
}

func (r *blobRepo) Put(ctx context.Context, id string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	b := &model.Blob{ID: id, Data: data}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(b).Error
}

func (r *blobRepo) Get(ctx context.Context, id string) (*model.Blob, error) {
	var b model.Blob
	err := r.db.WithContext(ctx).Take(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *blobRepo) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Blob{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (r *blobRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Blob{}).Error
}

func (r *blobRepo) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Blob{}).Error
}

func (r *blobRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Blob{}).Error
}
