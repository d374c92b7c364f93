// Package lang holds the language context of a build pass: which language is
// active, how many are configured, and how a language changes file names.
package lang

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Descriptor identifies one configured language.
type Descriptor struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Locale string `yaml:"locale,omitempty"`
}

// NewDescriptor builds a descriptor, deriving the locale and, if name is empty,
// the native language name from the id.
func NewDescriptor(id, name string) Descriptor {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if name == "" {
		name = NativeName(id)
	}
	return Descriptor{ID: id, Name: name, Locale: Locale(id)}
}

// Context is the read-only language state of one pass.
type Context struct {
	Active     Descriptor
	Configured int
}

// NewContext creates the context for the pass of active among all configured languages.
func NewContext(active Descriptor, configured int) Context {
	return Context{Active: active, Configured: configured}
}

// ID returns the active language id, empty for a language-agnostic pass.
func (c Context) ID() string { return c.Active.ID }

// Multilingual reports whether language-suffixed file names should be probed.
func (c Context) Multilingual() bool {
	return c.Active.ID != "" && c.Configured > 1
}

// Localize returns path with the active language id inserted before the file
// extension, or "" when the context is not multilingual.
func (c Context) Localize(path string) string {
	if !c.Multilingual() {
		return ""
	}
	return InsertSuffix(path, c.Active.ID)
}

// InsertSuffix turns dir/name.ext into dir/name_<id>.ext (dir/name_<id> without extension).
func InsertSuffix(path, id string) string {
	dir, file := filepath.Split(path)
	ext := filepath.Ext(file)
	if ext == file { // dot files such as ".config"
		ext = ""
	}
	stem := strings.TrimSuffix(file, ext)
	return dir + stem + "_" + id + ext
}

// Locale maps a language id such as "de" to a locale such as "de_DE". Ids that
// already carry a region are normalised to the underscore form.
func Locale(id string) string {
	if id == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(id, "_", "-"))
	if err != nil {
		return id
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.No {
		return base.String()
	}
	return base.String() + "_" + region.String()
}

// NativeName returns the language name in its own language ("Deutsch" for "de").
func NativeName(id string) string {
	if id == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(id, "_", "-"))
	if err != nil {
		return id
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return id
}
