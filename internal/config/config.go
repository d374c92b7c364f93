// Package config loads the optional bookbuilder.yaml file. Every setting has
// a default, so a build works without any configuration file.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "bookbuilder.yaml"

// Config is the build configuration.
type Config struct {
	// Input is the root markdown document.
	Input string `yaml:"input"`
	// Root bounds every path the book may reference. Defaults to the
	// directory of Input.
	Root   string `yaml:"root,omitempty"`
	Output string `yaml:"output"`
	// Name is the base name of the generated documents. Defaults to the
	// name of Input without extension.
	Name      string          `yaml:"name,omitempty"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Git       GitConfig       `yaml:"git"`
	// Concurrent runs the language passes in parallel.
	Concurrent  *bool         `yaml:"concurrent,omitempty"`
	MetricsFile string        `yaml:"metrics_file,omitempty"`
	Logging     LoggingConfig `yaml:"logging"`
}

// WorkspaceConfig controls where repositories are cloned.
type WorkspaceConfig struct {
	Dir string `yaml:"dir,omitempty"`
	// Persistent keeps clones between builds.
	Persistent bool `yaml:"persistent"`
}

// GitConfig configures repository fetches.
type GitConfig struct {
	// Depth of clones; 0 means shallow (1), negative means full history.
	Depth             int              `yaml:"depth"`
	Auth              *AuthConfig      `yaml:"auth,omitempty"`
	MaxRetries        int              `yaml:"max_retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay string           `yaml:"retry_initial_delay"`
	RetryMaxDelay     string           `yaml:"retry_max_delay"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// IsConcurrent reports whether language passes run in parallel.
func (c *Config) IsConcurrent() bool {
	return c.Concurrent == nil || *c.Concurrent
}

// Load reads path, or DefaultFile when path is empty. A missing DefaultFile
// yields the defaults; a missing explicit path is an error. Environment
// variables from .env files are loaded first and ${VAR} references in the
// file are expanded.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", logfields.Error(err))
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case !explicit && stderrors.Is(err, fs.ErrNotExist):
		cfg := Default()
		return cfg, cfg.finish()
	case stderrors.Is(err, fs.ErrNotExist):
		return nil, errors.ConfigError("configuration file not found").WithContext("path", path).Build()
	default:
		return nil, errors.ConfigError("cannot read configuration file").WithCause(err).WithContext("path", path).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		ce, _ := errors.AsClassified(err)
		if ce != nil {
			return nil, ce.WithContextDefault("path", path)
		}
		return nil, err
	}
	slog.Debug("Configuration loaded", logfields.Path(path))
	return cfg, nil
}

// Parse decodes a configuration document and applies defaults and validation.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.ConfigError("invalid configuration").WithCause(err).Build()
	}
	return cfg, cfg.finish()
}

func (c *Config) finish() error {
	c.normalize()
	c.applyDefaults()
	if err := c.Validate().ToError(); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid configuration").Build()
	}
	return nil
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").WithContext("path", path).Build()
	}
	example := Default()
	example.Input = "book.md"
	example.Git.Auth = &AuthConfig{Type: AuthTypeToken, Token: "${GIT_TOKEN}"}
	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "cannot encode example configuration").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.FileSystemError("cannot write configuration file").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}
