package commands

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Input    string        `arg:"" optional:"" help:"Root document (overrides input)" type:"path"`
	Output   string        `short:"o" help:"Output directory (overrides output)"`
	Debounce time.Duration `help:"Quiet period before a rebuild starts" default:"300ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	overrideInput(cfg, w.Input)
	if w.Output != "" {
		cfg.Output = w.Output
	}
	bookRoot := cfg.Root
	if bookRoot == "" {
		bookRoot = filepath.Dir(cfg.Input)
	}

	watcher, err := watch.New(bookRoot, func(ctx context.Context) error {
		return RunBuild(ctx, g, cfg)
	}, cfg.Output, cfg.Workspace.Dir, cfg.MetricsFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return watcher.WithDebounce(w.Debounce).Run(ctx)
}
