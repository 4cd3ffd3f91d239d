package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MemoGallery/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CurrentSchemaVersion — версия схемы, которую понимает этот бинарник.
// Поднимается только при изменении набора таблиц или индексов.
const CurrentSchemaVersion = 1

// ErrSchemaTooNew — файл создан более новой версией приложения.
var ErrSchemaTooNew = errors.New("stored schema version is newer than supported")

// Migrate создаёт недостающие таблицы и индексы, ничего не удаляя, и записывает
// текущую версию схемы.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	if err := tx.AutoMigrate(&model.SchemaVersion{}); err != nil {
		return err
	}
	stored, err := StoredSchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	if stored > CurrentSchemaVersion {
		return fmt.Errorf("%w: %d > %d", ErrSchemaTooNew, stored, CurrentSchemaVersion)
	}
	// при совпадении версии тоже: досоздаёт удалённые вручную таблицы и индексы
	if err := tx.AutoMigrate(&model.Media{}, &model.Blob{}, &model.Category{}); err != nil {
		return err
	}
	if stored == CurrentSchemaVersion {
		return nil
	}
	sv := model.SchemaVersion{ID: 1, Version: CurrentSchemaVersion, AppliedAt: time.Now().UnixMilli()}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&sv).Error
}

// StoredSchemaVersion возвращает записанную версию схемы; 0 — схема ещё не создавалась.
func StoredSchemaVersion(ctx context.Context, db *gorm.DB) (int, error) {
	var sv model.SchemaVersion
	err := db.WithContext(ctx).Take(&sv, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return sv.Version, nil
}
