// Package directive finds backslash directives such as \rel.input{file.md}
// in markdown text and substitutes them.
package directive

// Names of the supported directives.
const (
	RelInput      = "rel.input"
	RelCode       = "rel.code"
	RelativeCode  = "relative.code"
	GitCode       = "git.code"
	RelFigure     = "rel.figure"
	Definition    = "definition"
	DefinitionRef = "def.ref"
	Meta          = "meta"
)

// Spec describes the shape of a directive.
type Spec struct {
	Name string
	// Args is the number of brace groups.
	Args int
	// Block directives are separated from surrounding text by blank lines.
	Block bool
}

var known = map[string]Spec{
	RelInput:      {Name: RelInput, Args: 1, Block: true},
	RelCode:       {Name: RelCode, Args: 6, Block: true},
	RelativeCode:  {Name: RelativeCode, Args: 6, Block: true},
	GitCode:       {Name: GitCode, Args: 7, Block: true},
	RelFigure:     {Name: RelFigure, Args: 4, Block: true},
	Definition:    {Name: Definition, Args: 3, Block: true},
	DefinitionRef: {Name: DefinitionRef, Args: 1},
	Meta:          {Name: Meta, Args: 1},
}

// Lookup returns the spec of a directive name.
func Lookup(name string) (Spec, bool) {
	s, ok := known[name]
	return s, ok
}

// Invocation is one directive occurrence.
type Invocation struct {
	Name string
	Args []string
	// Start and End are byte offsets of the whole invocation, End exclusive.
	Start, End int
	// Line is the 1-based line of the leading backslash.
	Line int
}

// Spec returns the spec of the invoked directive.
func (i Invocation) Spec() Spec { return known[i.Name] }
