package commands

import (
	"context"
	"fmt"
	"strings"

	"MemoGallery/internal/config"
	"MemoGallery/internal/service"
)

type categoriesCmd struct{}

func (categoriesCmd) Name() string        { return "categories" }
func (categoriesCmd) Description() string { return "Показать категории и число записей" }
func (categoriesCmd) Usage() string       { return "categories" }

func (categoriesCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		list, err := g.ListCategories(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(Out, "Нет категорий")
			return nil
		}
		for _, c := range list {
			fmt.Fprintf(Out, "- %s  %q  %s  count=%d\n", c.ID, c.Name, c.Color, c.Count)
		}
		return nil
	})
}

type categoryAddCmd struct{}

func (categoryAddCmd) Name() string        { return "category-add" }
func (categoryAddCmd) Description() string { return "Создать категорию (одноимённая заменяется)" }
func (categoryAddCmd) Usage() string       { return "category-add <name...>" }

func (categoryAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	name := strings.Join(args, " ")
	if strings.TrimSpace(name) == "" {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		c, err := g.CreateCategory(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(Out, "Created:")
		fmt.Fprintf(Out, "  id:    %s\n", c.ID)
		fmt.Fprintf(Out, "  name:  %s\n", c.Name)
		fmt.Fprintf(Out, "  color: %s\n", c.Color)
		return nil
	})
}

type categoryRmCmd struct{}

func (categoryRmCmd) Name() string        { return "category-rm" }
func (categoryRmCmd) Description() string { return "Удалить категорию (записи остаются)" }
func (categoryRmCmd) Usage() string       { return "category-rm <id>" }

func (categoryRmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		if err := g.DeleteCategory(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(Out, "Deleted category %s\n", args[0])
		return nil
	})
}

func init() {
	RegisterCmd(categoriesCmd{})
	RegisterCmd(categoryAddCmd{})
	RegisterCmd(categoryRmCmd{})
}
