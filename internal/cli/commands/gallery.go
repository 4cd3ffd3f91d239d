package commands

import (
	"context"
	"fmt"
	"time"

	"MemoGallery/internal/cli/bootstrap"
	"MemoGallery/internal/config"
	"MemoGallery/internal/model"
	"MemoGallery/internal/service"
)

// openGallery подменяется в тестах.
var openGallery = func(ctx context.Context, cfg *config.Config) (*service.Gallery, func() error, error) {
	return bootstrap.OpenGallery(ctx, cfg, bootstrap.Logger())
}

// withGallery открывает хранилище на время fn.
func withGallery(ctx context.Context, cfg *config.Config, fn func(g *service.Gallery) error) error {
	g, done, err := openGallery(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = done() }()
	return fn(g)
}

func printRecord(rec model.MediaRecord) {
	fav := ""
	if rec.Favorite {
		fav = " ★"
	}
	dur := ""
	if rec.DurationSeconds != nil {
		dur = fmt.Sprintf(" %.1fs", *rec.DurationSeconds)
	}
	created := time.UnixMilli(rec.CreatedAt).Format("2006-01-02 15:04")
	fmt.Fprintf(Out, "- %s  %s  %s  %dx%d%s  %s  %s%s\n",
		rec.ID, rec.Kind, rec.Category, rec.Width, rec.Height, dur, humanSize(rec.SizeBytes), created, fav)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func printList(list []model.MediaRecord) {
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет записей")
		return
	}
	for _, rec := range list {
		printRecord(rec)
	}
	fmt.Fprintf(Out, "Всего: %d\n", len(list))
}
