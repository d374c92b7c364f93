// Package manifest records what a build consumed and produced.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sort"
	"time"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// FileName is the manifest's name inside the output directory.
const FileName = "manifest.yaml"

// BuildManifest represents a complete record of a build's inputs and outputs.
type BuildManifest struct {
	ID           string      `yaml:"id"`
	Timestamp    time.Time   `yaml:"timestamp"`
	Status       string      `yaml:"status"`
	Duration     int64       `yaml:"duration_ms"`
	Inputs       Inputs      `yaml:"inputs"`
	Languages    []Language  `yaml:"languages"`
	Repositories []RepoInput `yaml:"repositories,omitempty"`
}

// Inputs captures the sources of the build.
type Inputs struct {
	Root  string `yaml:"root"`
	Input string `yaml:"input"`
	// Project is the checkout holding Root, if any.
	Project *RepoInput `yaml:"project,omitempty"`
}

// RepoInput is a repository at the commit that was used.
type RepoInput struct {
	Name   string    `yaml:"name"`
	URL    string    `yaml:"url"`
	Commit string    `yaml:"commit"`
	Date   time.Time `yaml:"date,omitempty"`
}

// Language describes the output of one language pass.
type Language struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name,omitempty"`
	Locale      string   `yaml:"locale,omitempty"`
	Document    string   `yaml:"document"`
	Fingerprint string   `yaml:"fingerprint"`
	Sources     []string `yaml:"sources"`
	Labels      int      `yaml:"labels"`
	Resources   []string `yaml:"resources,omitempty"`
}

// Fingerprint hashes an expanded document.
func Fingerprint(document string) string {
	return mdfp.CalculateFingerprintFromParts("", document)
}

// ToYAML serializes the manifest.
func (m *BuildManifest) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "marshal manifest").Build()
	}
	return data, nil
}

// FromYAML deserializes a manifest.
func FromYAML(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "unmarshal manifest").Build()
	}
	return &m, nil
}

// Write stores the manifest at path.
func (m *BuildManifest) Write(path string) error {
	data, err := m.ToYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.FileSystemError("cannot write manifest").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}

// Read loads a manifest from path.
func Read(path string) (*BuildManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystemError("cannot read manifest").WithCause(err).WithContext("path", path).Build()
	}
	return FromYAML(data)
}

// Hash identifies the build's outputs: two builds with the same hash produced
// the same documents from the same repository commits. Timestamps, ids and
// durations are ignored.
func (m *BuildManifest) Hash() (string, error) {
	langs := append([]Language(nil), m.Languages...)
	sort.Slice(langs, func(i, j int) bool { return langs[i].ID < langs[j].ID })
	repos := append([]RepoInput(nil), m.Repositories...)
	sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })

	hashInput := struct {
		Input     string
		Project   *RepoInput
		Languages []Language
		Repos     []RepoInput
	}{m.Inputs.Input, m.Inputs.Project, langs, repos}

	data, err := yaml.Marshal(hashInput)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "marshal for hash").Build()
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
