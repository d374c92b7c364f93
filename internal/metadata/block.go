// Package metadata parses YAML metadata blocks and serves layered,
// per-language lookups over them.
package metadata

import (
	"bytes"
	stderrors "errors"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// Layer is one decoded metadata block.
type Layer map[string]any

const metaDirective = `\meta`

// unmarshalBlock drops lines that reference other metadata before decoding.
func unmarshalBlock(data []byte, v any) error {
	lines := bytes.Split(data, []byte("\n"))
	kept := lines[:0]
	for _, l := range lines {
		if !bytes.Contains(l, []byte(metaDirective)) {
			kept = append(kept, l)
		}
	}
	return yaml.Unmarshal(bytes.Join(kept, []byte("\n")), v)
}

// Blocks end with "..." as in pandoc, or with a second "---".
var blockFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "...", unmarshalBlock),
	frontmatter.NewFormat("---", "---", unmarshalBlock),
}

// ParseBlock decodes the metadata block at the start of text. Leading blank
// lines are skipped. found is false when text does not start with a block.
func ParseBlock(text string) (layer Layer, found bool, err error) {
	for _, f := range blockFormats {
		var l Layer
		_, err := frontmatter.MustParse(strings.NewReader(text), &l, f)
		if stderrors.Is(err, frontmatter.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, false, errors.MetadataError("invalid metadata block").WithCause(err).Build()
		}
		if l == nil {
			l = Layer{}
		}
		return l, true, nil
	}
	return nil, false, nil
}

// FindBlock decodes the first metadata block anywhere in text.
func FindBlock(text string) (Layer, bool, error) {
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.TrimSpace(line) == "---" {
			return ParseBlock(text[offset:])
		}
		offset += len(line)
	}
	return nil, false, nil
}
