package commands

import (
	"context"
	"fmt"
	"os"
	"sort"

	"MemoGallery/internal/archive"
	"MemoGallery/internal/config"
	"MemoGallery/internal/service"
)

type recountCmd struct{}

func (recountCmd) Name() string        { return "recount" }
func (recountCmd) Description() string { return "Пересчитать счётчики категорий" }
func (recountCmd) Usage() string       { return "recount" }

func (recountCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		tally, err := g.RecomputeCounts(ctx)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(tally.Counts))
		for id := range tally.Counts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(Out, "  %s: %d\n", id, tally.Counts[id])
		}
		fmt.Fprintf(Out, "Без категории: %d\n", tally.Orphans)
		return nil
	})
}

type exportCmd struct{}

func (exportCmd) Name() string        { return "export" }
func (exportCmd) Description() string { return "Упаковать записи в ZIP" }
func (exportCmd) Usage() string       { return "export <out.zip> <id>..." }

func (exportCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		recs, err := g.Export(ctx, args[1:])
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return fmt.Errorf("nothing to export")
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		n, err := archive.WriteZip(f, recs)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "Exported %d file(s) to %s\n", n, args[0])
		return nil
	})
}

type wipeCmd struct{}

func (wipeCmd) Name() string        { return "wipe" }
func (wipeCmd) Description() string { return "Удалить все данные галереи (необратимо)" }
func (wipeCmd) Usage() string       { return "wipe --yes" }

func (wipeCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] != "--yes" {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		if err := g.WipeAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(Out, "Все данные удалены")
		return nil
	})
}

type statsCmd struct{}

func (statsCmd) Name() string        { return "stats" }
func (statsCmd) Description() string { return "Сводка по хранилищу" }
func (statsCmd) Usage() string       { return "stats" }

func (statsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		st, err := g.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "media:         %d (images %d, videos %d)\n", st.Media, st.Images, st.Videos)
		fmt.Fprintf(Out, "favorites:     %d\n", st.Favorites)
		fmt.Fprintf(Out, "size:          %s\n", humanSize(st.TotalBytes))
		fmt.Fprintf(Out, "categories:    %d\n", st.Categories)
		fmt.Fprintf(Out, "uncategorized: %d\n", st.Uncategorized)
		if st.DanglingBlobs > 0 {
			fmt.Fprintf(Out, "dangling blobs: %d\n", st.DanglingBlobs)
		}
		return nil
	})
}

func init() {
	RegisterCmd(recountCmd{})
	RegisterCmd(exportCmd{})
	RegisterCmd(wipeCmd{})
	RegisterCmd(statsCmd{})
}
