package config

import (
	"path/filepath"
	"strings"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Input:  "book.md",
		Output: "build",
		Git: GitConfig{
			MaxRetries:        2,
			RetryBackoff:      RetryBackoffLinear,
			RetryInitialDelay: "1s",
			RetryMaxDelay:     "30s",
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

func (c *Config) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Root = strings.TrimSpace(c.Root)
	c.Output = strings.TrimSpace(c.Output)
	if m := NormalizeRetryBackoff(string(c.Git.RetryBackoff)); m != "" {
		c.Git.RetryBackoff = m
	}
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
	if c.Git.Auth != nil {
		if t := NormalizeAuthType(string(c.Git.Auth.Type)); t != "" {
			c.Git.Auth.Type = t
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Root == "" && c.Input != "" {
		c.Root = filepath.Dir(c.Input)
	}
	if c.Name == "" && c.Input != "" {
		base := filepath.Base(c.Input)
		c.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if c.Git.RetryBackoff == "" {
		c.Git.RetryBackoff = RetryBackoffLinear
	}
	if c.Git.RetryInitialDelay == "" {
		c.Git.RetryInitialDelay = "1s"
	}
	if c.Git.RetryMaxDelay == "" {
		c.Git.RetryMaxDelay = "30s"
	}
}
