package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"MemoGallery/internal/metrics"
	"MemoGallery/internal/model"
	"MemoGallery/internal/repo"

	"gorm.io/gorm"
)

// errPartialBatch только помечает метрику частично неудачного пакета.
var errPartialBatch = errors.New("partial batch failure")

// SaveRequest — то, что производитель (загрузка, камера, AI) передаёт в хранилище.
type SaveRequest struct {
	ID              string
	Payload         []byte
	Category        string
	Width           int
	Height          int
	Kind            model.MediaKind // пусто — image
	DurationSeconds *float64        // только для video
}

// BatchResult — итог пакетного удаления. Failed непуст при частичном сбое.
type BatchResult struct {
	Deleted []string
	Failed  map[string]error
}

// Partial сообщает, что часть id удалить не удалось.
func (r BatchResult) Partial() bool { return len(r.Failed) > 0 }

// FailedIDs возвращает неудачные id в отсортированном виде.
func (r BatchResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// checkMediaID не пускает id, которые нельзя безопасно использовать как имя файла
// (экспорт, Content-Disposition).
func checkMediaID(id string) error {
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return model.Invalid("media id %q: path separators and \"..\" are not allowed", id)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return model.Invalid("media id %q: control characters are not allowed", id)
		}
	}
	return nil
}

func (g *Gallery) newMedia(req SaveRequest) (*model.Media, error) {
	if req.ID == "" {
		return nil, model.Invalid("empty media id")
	}
	if req.Category == "" {
		return nil, model.Invalid("media %s: empty category", req.ID)
	}
	if err := checkMediaID(req.ID); err != nil {
		return nil, err
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, model.Invalid("media %s: dimensions must be positive, got %dx%d", req.ID, req.Width, req.Height)
	}
	kind, err := model.ParseKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	if req.DurationSeconds != nil {
		if kind != model.KindVideo {
			return nil, model.Invalid("media %s: duration is only allowed for video", req.ID)
		}
		d := *req.DurationSeconds
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, model.Invalid("media %s: duration must be a finite number", req.ID)
		}
		if d < 0 {
			return nil, model.Invalid("media %s: negative duration", req.ID)
		}
	}
	if g.maxBlobBytes > 0 && int64(len(req.Payload)) > g.maxBlobBytes {
		return nil, model.NewStorageError("put", req.ID, model.ErrStorageWrite, model.ErrQuotaExceeded)
	}

	k := string(kind)
	fav := false
	m := &model.Media{
		ID:          req.ID,
		Category:    req.Category,
		CreatedAtMs: g.now().UnixMilli(),
		Width:       req.Width,
		Height:      req.Height,
		SizeBytes:   int64(len(req.Payload)),
		Kind:        &k,
		Favorite:    &fav,
	}
	if req.DurationSeconds != nil {
		d := *req.DurationSeconds
		m.DurationSeconds = &d
	}
	return m, nil
}

// Save создаёт запись или полностью перезаписывает существующую с тем же id
// (createdAt при этом выставляется заново). Содержимое и метаданные пишутся
// одной транзакцией: при ошибке прежняя запись остаётся нетронутой.
func (g *Gallery) Save(ctx context.Context, req SaveRequest) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("put", started, err) }()

	m, err := g.newMedia(req)
	if err != nil {
		return err
	}
	db, err := g.conn.DB(ctx)
	if err != nil {
		return err
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.NewBlobRepository(tx).Put(ctx, req.ID, req.Payload); err != nil {
			return err
		}
		return repo.NewMediaRepository(tx).Put(ctx, m)
	})
	if err != nil {
		g.logger.Errorw("failed to save media", "id", req.ID, "category", req.Category, "error", err)
		return model.NewStorageError("put", req.ID, model.ErrStorageWrite, err)
	}
	g.logger.Debugw("media saved", "id", req.ID, "category", req.Category, "kind", *m.Kind, "size", m.SizeBytes)
	_, err = g.recount(ctx, db, "put")
	return err
}

// Get возвращает запись вместе с содержимым. found=false, если записи нет.
func (g *Gallery) Get(ctx context.Context, id string) (rec model.MediaRecord, found bool, err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("get", started, err) }()

	db, err := g.conn.DB(ctx)
	if err != nil {
		return model.MediaRecord{}, false, err
	}
	var (
		meta *model.Media
		blob *model.Blob
	)
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if meta, err = repo.NewMediaRepository(tx).Get(ctx, id); err != nil || meta == nil {
			return err
		}
		blob, err = repo.NewBlobRepository(tx).Get(ctx, id)
		return err
	})
	if err != nil {
		return model.MediaRecord{}, false, model.NewStorageError("get", id, model.ErrStorageRead, err)
	}
	if meta == nil {
		return model.MediaRecord{}, false, nil
	}
	var payload []byte
	if blob != nil {
		payload = blob.Data
	} else {
		g.logger.Warnw("media metadata without payload", "id", id)
	}
	return meta.Record(payload), true, nil
}

// List возвращает метаданные всех записей (без содержимого), новые первыми.
func (g *Gallery) List(ctx context.Context) (list []model.MediaRecord, err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("list_all", started, err) }()

	db, err := g.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := repo.NewMediaRepository(db).List(ctx)
	if err != nil {
		return nil, model.NewStorageError("list_all", "", model.ErrStorageRead, err)
	}
	return records(rows), nil
}

// ListByCategory возвращает записи категории, включая записи удалённой категории.
func (g *Gallery) ListByCategory(ctx context.Context, category string) (list []model.MediaRecord, err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("list_by_category", started, err) }()

	db, err := g.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := repo.NewMediaRepository(db).ListByCategory(ctx, category)
	if err != nil {
		return nil, model.NewStorageError("list_by_category", category, model.ErrStorageRead, err)
	}
	return records(rows), nil
}

// MatchesQuery — поиск галереи: подстрока query в категории без учёта регистра.
func MatchesQuery(rec model.MediaRecord, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(rec.Category), strings.ToLower(query))
}

// Search фильтрует все записи по подстроке категории.
func (g *Gallery) Search(ctx context.Context, query string) ([]model.MediaRecord, error) {
	list, err := g.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterQuery(list, query), nil
}

// FilterQuery оставляет записи, подходящие под MatchesQuery.
func FilterQuery(list []model.MediaRecord, query string) []model.MediaRecord {
	if query == "" {
		return list
	}
	out := make([]model.MediaRecord, 0, len(list))
	for _, rec := range list {
		if MatchesQuery(rec, query) {
			out = append(out, rec)
		}
	}
	return out
}

func deleteMedia(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.NewMediaRepository(tx).Delete(ctx, id); err != nil {
			return err
		}
		return repo.NewBlobRepository(tx).Delete(ctx, id)
	})
}

// DeleteOne удаляет запись и её содержимое. Повторное удаление — не ошибка.
func (g *Gallery) DeleteOne(ctx context.Context, id string) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("delete_one", started, err) }()

	db, err := g.conn.DB(ctx)
	if err != nil {
		return err
	}
	if err := deleteMedia(ctx, db, id); err != nil {
		g.logger.Errorw("failed to delete media", "id", id, "error", err)
		return model.NewStorageError("delete_one", id, model.ErrStorageWrite, err)
	}
	_, err = g.recount(ctx, db, "delete_one")
	return err
}

// DeleteMany пытается удалить каждый id, не останавливаясь на первой ошибке, и
// сообщает, какие удалились, а какие нет. Ошибка возвращается только если
// хранилище недоступно или не удался пересчёт после удаления.
func (g *Gallery) DeleteMany(ctx context.Context, ids []string) (res BatchResult, err error) {
	started := time.Now()
	defer func() {
		obs := err
		if obs == nil && res.Partial() {
			obs = errPartialBatch
		}
		metrics.ObserveStoreOperation("delete_many", started, obs)
	}()

	res.Failed = map[string]error{}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return res, nil
	}
	db, err := g.conn.DB(ctx)
	if err != nil {
		return res, err
	}
	for _, id := range ids {
		if err := deleteMedia(ctx, db, id); err != nil {
			res.Failed[id] = model.NewStorageError("delete_many", id, model.ErrStorageWrite, err)
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}
	if res.Partial() {
		g.logger.Warnw("batch delete partially failed", "requested", len(ids), "failed", res.FailedIDs())
	}
	if len(res.Deleted) > 0 {
		if _, err := g.recount(ctx, db, "delete_many"); err != nil {
			return res, err
		}
	}
	return res, nil
}

// SetFavorite выставляет флаг избранного, не трогая остальные поля.
// Несуществующий id — тихий no-op.
func (g *Gallery) SetFavorite(ctx context.Context, id string, value bool) (err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("set_favorite", started, err) }()

	db, err := g.conn.DB(ctx)
	if err != nil {
		return err
	}
	found, err := repo.NewMediaRepository(db).SetFavorite(ctx, id, value)
	if err != nil {
		g.logger.Errorw("failed to set favorite", "id", id, "error", err)
		return model.NewStorageError("set_favorite", id, model.ErrStorageWrite, err)
	}
	if !found {
		g.logger.Debugw("set favorite on missing media ignored", "id", id)
	}
	return nil
}

// ToggleFavorite инвертирует флаг и возвращает новое значение.
func (g *Gallery) ToggleFavorite(ctx context.Context, id string) (value, found bool, err error) {
	started := time.Now()
	defer func() { metrics.ObserveStoreOperation("toggle_favorite", started, err) }()

	db, err := g.conn.DB(ctx)
	if err != nil {
		return false, false, err
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		media := repo.NewMediaRepository(tx)
		m, err := media.Get(ctx, id)
		if err != nil || m == nil {
			return err
		}
		value = !m.IsFavorite()
		found, err = media.SetFavorite(ctx, id, value)
		return err
	})
	if err != nil {
		return false, false, model.NewStorageError("toggle_favorite", id, model.ErrStorageWrite, err)
	}
	return value, found, nil
}

// Export загружает содержимое выбранных записей в порядке ids; отсутствующие пропускаются.
func (g *Gallery) Export(ctx context.Context, ids []string) ([]model.MediaRecord, error) {
	ids = uniqueIDs(ids)
	out := make([]model.MediaRecord, 0, len(ids))
	for _, id := range ids {
		rec, found, err := g.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, rec)
		}
	}
	return out, nil
}

func records(rows []model.Media) []model.MediaRecord {
	list := make([]model.MediaRecord, 0, len(rows))
	for _, m := range rows {
		list = append(list, m.Record(nil))
	}
	SortNewestFirst(list)
	return list
}

// SortNewestFirst сортирует по createdAt убыванию, при равенстве — по id.
func SortNewestFirst(list []model.MediaRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt > list[j].CreatedAt
		}
		return list[i].ID < list[j].ID
	})
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
