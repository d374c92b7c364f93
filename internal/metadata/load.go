package metadata

import (
	"os"
	"regexp"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/lang"
	"git.home.luguber.info/inful/bookbuilder/internal/pathres"
)

var firstInput = regexp.MustCompile(`\\rel\.input\{([^{}]*)\}`)

// LoadInitial reads the root document, inlines only its first \rel.input and
// decodes the first metadata block of the result. No other directive is
// evaluated, so this works before languages are known.
func LoadInitial(r *pathres.Resolver, rootPath string, lc lang.Context) (Layer, error) {
	raw, err := os.ReadFile(rootPath)
	if err != nil {
		return nil, errors.FileSystemError("cannot read root document").WithCause(err).WithContext("file", rootPath).Build()
	}
	text := string(raw)
	if m := firstInput.FindStringSubmatchIndex(text); m != nil {
		child, err := r.Resolve(pathres.Dir(rootPath), text[m[2]:m[3]], lc)
		if err != nil {
			return nil, err
		}
		body, err := os.ReadFile(child)
		if err != nil {
			return nil, errors.FileSystemError("cannot read metadata document").WithCause(err).WithContext("file", child).Build()
		}
		text = text[:m[0]] + string(body) + text[m[1]:]
	}
	layer, found, err := FindBlock(text)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryMetadata, "cannot load initial metadata").WithContext("file", rootPath).Build()
	}
	if !found {
		return Layer{}, nil
	}
	return layer, nil
}
