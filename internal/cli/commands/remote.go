package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"MemoGallery/internal/aiclient"
	"MemoGallery/internal/config"
	"MemoGallery/internal/service"

	"github.com/go-resty/resty/v2"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Проверить, запущен ли демон галереи" }
func (statusCmd) Usage() string       { return "status" }

type healthResponse struct {
	Status string `json:"status"`
}

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	endpoint := strings.TrimRight(cfg.ServerURL, "/") + "/health"
	resp, err := resty.New().R().SetContext(ctx).Get(endpoint)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", cfg.ServerURL, err)
	}
	if resp.IsError() {
		return fmt.Errorf("daemon status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	var hr healthResponse
	if err := json.Unmarshal(resp.Body(), &hr); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	fmt.Fprintln(Out, "Status:", hr.Status)
	return nil
}

type importURLCmd struct{}

func (importURLCmd) Name() string        { return "import-url" }
func (importURLCmd) Description() string { return "Скачать изображение (http(s) или data:) в категорию" }
func (importURLCmd) Usage() string       { return "import-url <url> <category>" }

func (importURLCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	ai := aiclient.New(cfg.AIBaseURL).WithMaxImageBytes(cfg.BlobMaxBytes())
	return withGallery(ctx, cfg, func(g *service.Gallery) error {
		rec, err := g.ImportFromURL(ctx, ai, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(Out, "Imported:")
		printRecord(rec)
		return nil
	})
}

func init() {
	RegisterCmd(statusCmd{})
	RegisterCmd(importURLCmd{})
}
