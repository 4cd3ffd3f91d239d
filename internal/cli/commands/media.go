package commands

import (
	"context"
	"fmt"
	"os"

	"MemoGallery/internal/config"
	"MemoGallery/internal/model"
	"MemoGallery/internal/service"
)

type addCmd struct{}

func (addCmd) Name() string        { return "add" }
func (addCmd) Description() string { return "Добавить файл изображения в категорию" }
func (addCmd) Usage() string       { return "add <file> <category> [id]" }

func (addCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return ErrUsage
	}
	payload, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	id := ""
	if len(args) == 3 {
		id = args[2]
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		rec, err := g.SaveProbed(ctx, id, args[1], payload, 0, 0, nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(Out, "Added:")
		printRecord(rec)
		return nil
	})
}

type lsCmd struct{}

func (lsCmd) Name() string        { return "ls" }
func (lsCmd) Description() string { return "Показать записи (все или одной категории)" }
func (lsCmd) Usage() string       { return "ls [category]" }

func (lsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		var (
			recs []model.MediaRecord
			err  error
		)
		if len(args) == 1 {
			recs, err = g.ListByCategory(ctx, args[0])
		} else {
			recs, err = g.List(ctx)
		}
		if err != nil {
			return err
		}
		printList(recs)
		return nil
	})
}

type searchCmd struct{}

func (searchCmd) Name() string        { return "search" }
func (searchCmd) Description() string { return "Найти записи по подстроке категории" }
func (searchCmd) Usage() string       { return "search <query>" }

func (searchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		recs, err := g.Search(ctx, args[0])
		if err != nil {
			return err
		}
		printList(recs)
		return nil
	})
}

type getCmd struct{}

func (getCmd) Name() string        { return "get" }
func (getCmd) Description() string { return "Сохранить содержимое записи в файл" }
func (getCmd) Usage() string       { return "get <id> <out-file>" }

func (getCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		rec, found, err := g.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("media %s not found", args[0])
		}
		if err := os.WriteFile(args[1], rec.Payload, 0o600); err != nil {
			return err
		}
		printRecord(rec)
		fmt.Fprintf(Out, "Saved to %s\n", args[1])
		return nil
	})
}

type rmCmd struct{}

func (rmCmd) Name() string        { return "rm" }
func (rmCmd) Description() string { return "Удалить записи" }
func (rmCmd) Usage() string       { return "rm <id>..." }

func (rmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		res, err := g.DeleteMany(ctx, args)
		fmt.Fprintf(Out, "Deleted: %d\n", len(res.Deleted))
		for _, id := range res.FailedIDs() {
			fmt.Fprintf(Out, "  × %s: %v\n", id, res.Failed[id])
		}
		if err != nil {
			return err
		}
		if res.Partial() {
			return fmt.Errorf("%d of %d deletions failed", len(res.Failed), len(res.Failed)+len(res.Deleted))
		}
		return nil
	})
}

type favCmd struct{}

func (favCmd) Name() string        { return "fav" }
func (favCmd) Description() string { return "Отметить/снять избранное" }
func (favCmd) Usage() string       { return "fav <id> on|off|toggle" }

func (favCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	id, mode := args[0], args[1]
	if mode != "on" && mode != "off" && mode != "toggle" {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		if mode == "toggle" {
			v, found, err := g.ToggleFavorite(ctx, id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("media %s not found", id)
			}
			fmt.Fprintf(Out, "%s favorite=%t\n", id, v)
			return nil
		}
		if err := g.SetFavorite(ctx, id, mode == "on"); err != nil {
			return err
		}
		fmt.Fprintf(Out, "%s favorite=%t\n", id, mode == "on")
		return nil
	})
}

func init() {
	RegisterCmd(addCmd{})
	RegisterCmd(lsCmd{})
	RegisterCmd(searchCmd{})
	RegisterCmd(getCmd{})
	RegisterCmd(rmCmd{})
	RegisterCmd(favCmd{})
}
