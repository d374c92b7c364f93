// Package commands implements the bookbuilder command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "BOOKBUILDER_LOG_LEVEL"

// Global is shared by all subcommands.
type Global struct {
	Registry *prom.Registry
	Recorder metrics.Recorder
	// Stdout receives command output; tests replace it.
	Stdout io.Writer
}

// NewGlobal creates the shared state with a fresh metrics registry.
func NewGlobal() *Global {
	reg := prom.NewRegistry()
	return &Global{Registry: reg, Recorder: metrics.NewPrometheusRecorder(reg), Stdout: os.Stdout}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: bookbuilder.yaml if present)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Expand the book for every language and write the output directory"`
	Tree  TreeCmd  `cmd:"" help:"Show the inclusion tree of one language without writing anything"`
	Watch WatchCmd `cmd:"" help:"Rebuild whenever a file below the book root changes"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	setupLogging(parseLogLevel(c.Verbose, config.LogLevelInfo), config.LogFormatText)
	return nil
}

// loadConfig loads the configuration and reapplies logging with its settings.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	setupLogging(parseLogLevel(c.Verbose, cfg.Logging.Level), cfg.Logging.Format)
	return cfg, nil
}

// parseLogLevel resolves the level: -v wins, then LogLevelEnv, then the
// configured level.
func parseLogLevel(verbose bool, configured config.LogLevel) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if env := os.Getenv(LogLevelEnv); env != "" {
		return config.NormalizeLogLevel(env).Slog()
	}
	return configured.Slog()
}

func setupLogging(level slog.Level, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// writeMetrics dumps the registry when the configuration asks for it.
func writeMetrics(g *Global, cfg *config.Config) {
	if cfg.MetricsFile == "" || g.Registry == nil {
		return
	}
	if err := metrics.WriteTextfile(g.Registry, cfg.MetricsFile); err != nil {
		slog.Warn("Failed to write metrics", logfields.Error(err))
	}
}
