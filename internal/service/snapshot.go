package service

import (
	"context"

	"MemoGallery/internal/model"
	"MemoGallery/internal/repo"

	"golang.org/x/sync/errgroup"
)

// Snapshot — то, что нужно экрану галереи при открытии.
type Snapshot struct {
	Media      []model.MediaRecord
	Categories []model.Category
}

// Uncategorized возвращает записи, чья категория не существует.
func (s Snapshot) Uncategorized() []model.MediaRecord {
	known := make(map[string]struct{}, len(s.Categories))
	for _, c := range s.Categories {
		known[c.ID] = struct{}{}
	}
	var out []model.MediaRecord
	for _, m := range s.Media {
		if _, ok := known[m.Category]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// Snapshot загружает записи и категории параллельно.
func (g *Gallery) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		s.Media, err = g.List(ctx)
		return err
	})
	eg.Go(func() error {
		var err error
		s.Categories, err = g.ListCategories(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Stats — сводка по хранилищу.
type Stats struct {
	Media         int   `json:"media"`
	Images        int   `json:"images"`
	Videos        int   `json:"videos"`
	Favorites     int   `json:"favorites"`
	TotalBytes    int64 `json:"totalBytes"`
	Categories    int   `json:"categories"`
	Uncategorized int   `json:"uncategorized"`
	DanglingBlobs int   `json:"danglingBlobs"`
}

// Stats считает сводку по снимку галереи и ищет содержимое без метаданных.
func (g *Gallery) Stats(ctx context.Context) (Stats, error) {
	snap, err := g.Snapshot(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		Media:         len(snap.Media),
		Categories:    len(snap.Categories),
		Uncategorized: len(snap.Uncategorized()),
	}
	ids := make(map[string]struct{}, len(snap.Media))
	for _, m := range snap.Media {
		ids[m.ID] = struct{}{}
		st.TotalBytes += m.SizeBytes
		if m.Kind == model.KindVideo {
			st.Videos++
		} else {
			st.Images++
		}
		if m.Favorite {
			st.Favorites++
		}
	}

	db, err := g.conn.DB(ctx)
	if err != nil {
		return Stats{}, err
	}
	blobIDs, err := repo.NewBlobRepository(db).ListIDs(ctx)
	if err != nil {
		return Stats{}, model.NewStorageError("stats", "", model.ErrStorageRead, err)
	}
	for _, id := range blobIDs {
		if _, ok := ids[id]; !ok {
			st.DanglingBlobs++
		}
	}
	return st, nil
}
