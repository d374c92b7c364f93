// Package pathres resolves relative path fragments found in directives against
// the directory of the referencing file, preferring language-specific variants.
package pathres

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/lang"
)

// Resolver resolves paths inside a fixed project root.
type Resolver struct {
	root string
}

// New creates a resolver for the given project root.
func New(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.PathError("cannot make project root absolute").WithCause(err).WithContext("path", root).Build()
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, errors.PathError("project root is not a directory").WithCause(err).WithContext("path", abs).Build()
	}
	return &Resolver{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute project root.
func (r *Resolver) Root() string { return r.root }

// Resolve resolves rawPath relative to currentDir. When the language context is
// multilingual, name_<lang>.ext is preferred over name.ext if it exists.
func (r *Resolver) Resolve(currentDir, rawPath string, lc lang.Context) (string, error) {
	rawPath = strings.TrimSpace(rawPath)
	if rawPath == "" {
		return "", errors.PathError("empty path").WithContext("dir", currentDir).Build()
	}
	base := join(currentDir, rawPath)
	if !Contains(r.root, base) {
		return "", errors.PathError("path escapes project root").
			WithContext("path", rawPath).WithContext("root", r.root).Build()
	}

	if localized := lc.Localize(base); localized != "" {
		if !Contains(r.root, localized) {
			return "", errors.PathError("path escapes project root").
				WithContext("path", localized).WithContext("root", r.root).Build()
		}
		if isFile(localized) {
			return localized, nil
		}
		if !isFile(base) {
			return "", errors.PathError("neither language-specific nor plain file exists").
				WithContext("path", base).WithContext("localized", localized).Build()
		}
		return base, nil
	}

	if !isFile(base) {
		return "", errors.PathError("file does not exist").WithContext("path", base).Build()
	}
	return base, nil
}

// ResolveInside resolves rawPath relative to root without language probing.
func ResolveInside(root, rawPath string) (string, error) {
	rawPath = strings.TrimSpace(rawPath)
	if rawPath == "" {
		return "", errors.PathError("empty path").WithContext("root", root).Build()
	}
	p := join(root, rawPath)
	if !Contains(root, p) {
		return "", errors.PathError("path escapes repository root").
			WithContext("path", rawPath).WithContext("root", root).Build()
	}
	if !isFile(p) {
		return "", errors.PathError("file does not exist").WithContext("path", p).Build()
	}
	return p, nil
}

// Relative returns path relative to the project root using forward slashes.
func (r *Resolver) Relative(path string) (string, error) {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || !Contains(r.root, path) {
		return "", errors.PathError("path is outside project root").WithContext("path", path).Build()
	}
	return filepath.ToSlash(rel), nil
}

// Dir returns the directory that nested directives of a resolved file resolve against.
func Dir(resolved string) string { return filepath.Dir(resolved) }

// Contains reports whether path lies inside (or is) dir. Both are cleaned first.
func Contains(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func join(dir, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(dir, p))
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
