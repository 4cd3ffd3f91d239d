package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"MemoGallery/internal/cli/commands"
	"MemoGallery/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// exitInterrupted — код выхода после Ctrl+C, как у shell
const exitInterrupted = 130

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.NewConfig()
	if cfg.Version {
		fmt.Printf("Memo Gallery CLI\nVersion: %s\nBuild date: %s\n", version, buildDate)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := commands.Dispatch(ctx, cfg, flag.Args())
	if code != 0 && ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "interrupted")
		return exitInterrupted
	}
	return code
}
