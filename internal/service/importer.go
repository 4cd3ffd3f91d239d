package service

import (
	"context"
	"errors"
	"fmt"

	"MemoGallery/internal/mediaprobe"
	"MemoGallery/internal/model"

	"github.com/google/uuid"
)

// ImageFetcher скачивает изображение по ссылке (http(s) или data:).
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// NewMediaID формирует id для записей, у которых продюсер не задал свой.
func NewMediaID(prefix string, ms int64) string {
	return fmt.Sprintf("%s-%d-%s", prefix, ms, uuid.NewString()[:9])
}

// SaveProbed определяет тип и размеры содержимого и сохраняет запись.
// Для видео размеры должны прийти от продюсера (width/height > 0).
func (g *Gallery) SaveProbed(ctx context.Context, id, category string, payload []byte, width, height int, duration *float64) (model.MediaRecord, error) {
	info, err := mediaprobe.Probe(payload)
	switch {
	case err == nil:
	case errors.Is(err, mediaprobe.ErrNoDimensions) && width > 0 && height > 0:
	case errors.Is(err, mediaprobe.ErrNoDimensions):
		return model.MediaRecord{}, model.Invalid("media %s: %v: width and height are required", id, err)
	default:
		return model.MediaRecord{}, model.Invalid("media %s: %v", id, err)
	}
	if width <= 0 || height <= 0 {
		width, height = info.Width, info.Height
	}
	if id == "" {
		id = NewMediaID(string(info.Kind), g.now().UnixMilli())
	}
	req := SaveRequest{
		ID:       id,
		Payload:  payload,
		Category: category,
		Width:    width,
		Height:   height,
		Kind:     info.Kind,
	}
	if info.Kind == model.KindVideo {
		req.DurationSeconds = duration
	}
	saveErr := g.Save(ctx, req)
	if saveErr != nil && !errors.Is(saveErr, model.ErrCountsStale) {
		return model.MediaRecord{}, saveErr
	}
	rec, _, err := g.Get(ctx, id)
	if err != nil {
		return model.MediaRecord{}, err
	}
	rec.Payload = nil
	return rec, saveErr
}

// ImportFromURL скачивает сгенерированное изображение и сохраняет его в категорию.
func (g *Gallery) ImportFromURL(ctx context.Context, f ImageFetcher, url, category string) (model.MediaRecord, error) {
	if url == "" {
		return model.MediaRecord{}, model.Invalid("empty image url")
	}
	payload, err := f.FetchImage(ctx, url)
	if err != nil {
		g.logger.Errorw("failed to fetch image", "error", err)
		return model.MediaRecord{}, fmt.Errorf("fetch image: %w", err)
	}
	id := NewMediaID("ai", g.now().UnixMilli())
	rec, err := g.SaveProbed(ctx, id, category, payload, 0, 0, nil)
	if err != nil {
		return rec, err
	}
	g.logger.Infow("image imported", "id", id, "category", category, "size", len(payload))
	return rec, nil
}
