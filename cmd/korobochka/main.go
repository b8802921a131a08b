package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"korobochka/internal/config"
	"korobochka/internal/notify"
	"korobochka/internal/storage"
	"korobochka/internal/tasks"
	"korobochka/internal/ui"
)

func main() {
	cfg, err := config.LoadOrCreate(config.ResolveConfigPath())
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := openLogger(cfg.LogPath)

	adapter := storage.Open(cfg.DBPath, cfg.FallbackPath, logger.Named("storage"))
	defer adapter.Close()

	store := tasks.NewStore(adapter, adapter, logger.Named("tasks"))
	store.Load()

	if err := ui.Run(store, notify.NewNop(), cfg); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}

// openLogger writes diagnostics to the configured file; the TUI owns
// the terminal, so nothing may log to stdout. A broken log path just
// mutes diagnostics.
func openLogger(path string) hclog.Logger {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return hclog.NewNullLogger()
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "korobochka",
		Level:  hclog.Info,
		Output: out,
	})
}
