package code

import (
	"path/filepath"
	"strings"
)

type family int

const (
	familyPlain family = iota
	familyPython
	familyCLike
)

// Language describes how a source file is marked up and post-processed.
type Language struct {
	// Fence is the class used on the fenced code block, empty when unknown.
	Fence string
	// Comments are the line comment prefixes recognised for selection markers.
	Comments []string

	family family
}

var allComments = []string{"#", "//", "--", "%"}

var (
	Python = Language{Fence: "python", Comments: []string{"#"}, family: familyPython}
	Go     = Language{Fence: "go", Comments: []string{"//"}, family: familyCLike}
	// Plain is used for files whose suffix is not known. All comment styles
	// are recognised and no post-processing happens.
	Plain = Language{Comments: allComments}
)

func clike(fence string) Language {
	return Language{Fence: fence, Comments: []string{"//"}, family: familyCLike}
}

func plain(fence string, comments ...string) Language {
	return Language{Fence: fence, Comments: comments}
}

var bySuffix = map[string]Language{
	".py":    Python,
	".pyi":   Python,
	".go":    Go,
	".java":  clike("java"),
	".c":     clike("c"),
	".h":     clike("c"),
	".cc":    clike("cpp"),
	".cpp":   clike("cpp"),
	".cxx":   clike("cpp"),
	".hpp":   clike("cpp"),
	".js":    clike("javascript"),
	".mjs":   clike("javascript"),
	".ts":    clike("typescript"),
	".rs":    clike("rust"),
	".kt":    clike("kotlin"),
	".cs":    clike("csharp"),
	".swift": clike("swift"),
	".scala": clike("scala"),
	".sh":    plain("bash", "#"),
	".bash":  plain("bash", "#"),
	".yaml":  plain("yaml", "#"),
	".yml":   plain("yaml", "#"),
	".toml":  plain("toml", "#"),
	".r":     plain("r", "#"),
	".rb":    plain("ruby", "#"),
	".sql":   plain("sql", "--"),
	".lua":   plain("lua", "--"),
	".hs":    plain("haskell", "--"),
	".tex":   plain("latex", "%"),
	".m":     plain("matlab", "%"),
	".json":  plain("json"),
	".md":    plain("markdown"),
	".txt":   plain(""),
}

// DetectLanguage picks the language from the file suffix. Unknown suffixes
// yield Plain.
func DetectLanguage(path string) Language {
	if l, ok := bySuffix[strings.ToLower(filepath.Ext(path))]; ok {
		if len(l.Comments) == 0 {
			l.Comments = allComments
		}
		return l
	}
	return Plain
}
