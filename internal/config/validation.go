package config

import (
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation"
	"git.home.luguber.info/inful/bookbuilder/internal/retry"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() foundation.ValidationResult {
	chain := foundation.NewValidatorChain(
		func(cfg Config) foundation.ValidationResult {
			return foundation.Required("input", cfg.Input, "input document is required")
		},
		func(cfg Config) foundation.ValidationResult {
			return foundation.Required("output", cfg.Output, "output directory is required")
		},
		func(cfg Config) foundation.ValidationResult {
			return foundation.OneOf("logging.format", LogFormatText, LogFormatJSON)(cfg.Logging.Format)
		},
		func(cfg Config) foundation.ValidationResult {
			return cfg.Git.validate()
		},
	)
	return chain.Validate(*c)
}

func (g GitConfig) validate() foundation.ValidationResult {
	var result foundation.ValidationResult
	if g.MaxRetries < 0 {
		result = result.Combine(foundation.Fail("git.max_retries", "min", "must not be negative"))
	}
	if NormalizeRetryBackoff(string(g.RetryBackoff)) == "" {
		result = result.Combine(foundation.Fail("git.retry_backoff", "one_of", "must be fixed, linear or exponential"))
	}
	initial, r := foundation.PositiveDuration("git.retry_initial_delay", g.RetryInitialDelay)
	result = result.Combine(r)
	maxDelay, r := foundation.PositiveDuration("git.retry_max_delay", g.RetryMaxDelay)
	result = result.Combine(r)
	if initial > 0 && maxDelay > 0 && maxDelay < initial {
		result = result.Combine(foundation.Fail("git.retry_max_delay", "min", "must not be shorter than the initial delay"))
	}
	if g.Auth != nil {
		result = result.Combine(g.Auth.validate())
	}
	return result
}

func (a AuthConfig) validate() foundation.ValidationResult {
	switch a.Type {
	case AuthTypeNone:
	case AuthTypeToken:
		return foundation.Required("git.auth.token", a.Token, "token auth needs a token")
	case AuthTypeBasic:
		if a.Username == "" || a.Password == "" {
			return foundation.Fail("git.auth", "required", "basic auth needs username and password")
		}
	case AuthTypeSSH:
		return foundation.Required("git.auth.key_path", a.KeyPath, "ssh auth needs a key path")
	default:
		return foundation.Fail("git.auth.type", "one_of", "must be none, token, basic or ssh")
	}
	return foundation.ValidationResult{}
}

// RetryPolicy builds the fetch retry policy. Call after a successful Validate.
func (g GitConfig) RetryPolicy() retry.Policy {
	initial, _ := time.ParseDuration(g.RetryInitialDelay)
	maxDelay, _ := time.ParseDuration(g.RetryMaxDelay)
	return retry.NewPolicy(g.RetryBackoff.mode(), initial, maxDelay, g.MaxRetries)
}
