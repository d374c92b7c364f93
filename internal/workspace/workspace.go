package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// Prefix of ephemeral workspace directories.
const Prefix = "bookbuilder-"

// Manager handles workspace operations (both temporary and persistent)
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
	now        func() time.Time
}

// NewManager creates a manager for an ephemeral timestamped directory below baseDir.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, now: time.Now}
}

// NewPersistentManager uses baseDir/subdirName, which Cleanup leaves in place.
func NewPersistentManager(baseDir, subdirName string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if subdirName == "" {
		subdirName = "repositories"
	}
	return &Manager{
		baseDir:    baseDir,
		dir:        filepath.Join(baseDir, subdirName),
		persistent: true,
		now:        time.Now,
	}
}

// Create creates the workspace directory.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return errors.FileSystemError("failed to create persistent workspace").WithCause(err).WithContext("path", m.dir).Build()
		}
		slog.Info("Using persistent workspace", logfields.Path(m.dir))
		return nil
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return errors.FileSystemError("failed to create workspace base").WithCause(err).WithContext("path", m.baseDir).Build()
	}
	dir, err := os.MkdirTemp(m.baseDir, Prefix+m.now().Format("20060102-150405")+"-")
	if err != nil {
		return errors.FileSystemError("failed to create workspace").WithCause(err).WithContext("path", m.baseDir).Build()
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory, empty before Create.
func (m *Manager) Path() string {
	return m.dir
}

// Persistent reports whether Cleanup keeps the directory.
func (m *Manager) Persistent() bool { return m.persistent }

// Cleanup removes an ephemeral workspace. Persistent workspaces are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.persistent {
		slog.Debug("Keeping persistent workspace", logfields.Path(m.dir))
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return errors.FileSystemError("failed to clean up workspace").WithCause(err).WithContext("path", m.dir).Build()
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
