package config

import (
	"log/slog"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/normalization"
	"git.home.luguber.info/inful/bookbuilder/internal/git"
	"git.home.luguber.info/inful/bookbuilder/internal/retry"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff converts user input (case-insensitive) into a typed
// mode, returning "" for unknown values.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

func (m RetryBackoffMode) mode() retry.Mode { return retry.Mode(m) }

// AuthType enumerates the credential kinds for repository fetches.
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
	AuthTypeSSH   AuthType = "ssh"
)

var authTypeNormalizer = normalization.NewNormalizer(map[string]AuthType{
	"none":  AuthTypeNone,
	"":      AuthTypeNone,
	"token": AuthTypeToken,
	"basic": AuthTypeBasic,
	"ssh":   AuthTypeSSH,
}, "")

// NormalizeAuthType returns "" for unknown auth types.
func NormalizeAuthType(raw string) AuthType {
	return authTypeNormalizer.Normalize(raw)
}

// AuthConfig represents authentication configuration.
type AuthConfig struct {
	Type     AuthType `yaml:"type"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// Slog maps the level onto slog.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// GitAuth converts the auth section for the git client. It returns nil
// when no auth is configured.
func (g GitConfig) GitAuth() *git.Auth {
	if g.Auth == nil || g.Auth.Type == AuthTypeNone {
		return nil
	}
	return &git.Auth{
		Type:     git.AuthType(g.Auth.Type),
		Token:    g.Auth.Token,
		Username: g.Auth.Username,
		Password: g.Auth.Password,
		KeyPath:  g.Auth.KeyPath,
	}
}
