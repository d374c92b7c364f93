package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/build"
	"git.home.luguber.info/inful/bookbuilder/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Input      string `arg:"" optional:"" help:"Root document (overrides input)" type:"path"`
	Output     string `short:"o" help:"Output directory (overrides output)"`
	Sequential bool   `help:"Run the language passes one after another"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	b.apply(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, g, cfg)
}

func (b *BuildCmd) apply(cfg *config.Config) {
	overrideInput(cfg, b.Input)
	if b.Output != "" {
		cfg.Output = b.Output
	}
	if b.Sequential {
		concurrent := false
		cfg.Concurrent = &concurrent
	}
}

// overrideInput replaces the root document. Root and name follow it unless
// the configuration file set them explicitly.
func overrideInput(cfg *config.Config, input string) {
	if input == "" || input == cfg.Input {
		return
	}
	if cfg.Root == filepath.Dir(cfg.Input) {
		cfg.Root = filepath.Dir(input)
	}
	if cfg.Name == stem(cfg.Input) {
		cfg.Name = stem(input)
	}
	cfg.Input = input
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RunBuild executes one build and prints a summary.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config) error {
	res, err := build.NewService().WithRecorder(g.Recorder).Run(ctx, build.Request{Config: cfg})
	writeMetrics(g, cfg)
	if err != nil {
		return err
	}
	for _, l := range res.Languages {
		name := l.Lang.Name
		if name == "" {
			name = "document"
		}
		_, _ = fmt.Fprintf(g.Stdout, "%-10s %s (%d sources, %d labels)\n", name, l.Document, len(l.Sources), l.Labels)
	}
	if res.Website != "" {
		_, _ = fmt.Fprintf(g.Stdout, "%-10s %s\n", "website", res.Website)
	}
	note := ""
	if res.Unchanged {
		note = ", outputs unchanged"
	}
	_, _ = fmt.Fprintf(g.Stdout, "Build completed in %s%s\n", res.Duration.Round(time.Millisecond), note)
	return nil
}
