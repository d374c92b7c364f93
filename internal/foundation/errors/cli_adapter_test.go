package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: 0,
		},
		{
			name:     "classified validation error",
			err:      NewError(CategoryValidation, "invalid input").Build(),
			expected: 2,
		},
		{
			name:     "inclusion cycle",
			err:      InclusionError("cycle").Build(),
			expected: 3,
		},
		{
			name:     "wrapped label error",
			err:      fmt.Errorf("pass de: %w", LabelError("duplicate label").Build()),
			expected: 3,
		},
		{
			name:     "repository error",
			err:      RepositoryError("fetch failed").Build(),
			expected: 8,
		},
		{
			name:     "config error",
			err:      ConfigError("bad config").Build(),
			expected: 7,
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ExitCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "internal error in non-verbose mode",
			err:      NewError(CategoryInternal, "internal issue").Build(),
			contains: "Internal error occurred (use -v for details)",
		},
		{
			name:     "path error shows location",
			err:      PathError("file not found").WithContext("file", "book.md").WithContext("line", 4).Build(),
			contains: "file=book.md line=4",
		},
		{
			name: "document error leads with its location",
			err: InclusionError("inclusion cycle").WithContext("file", "a.md").WithContext("line", 2).
				WithContext("directive", "rel.input").WithContext("lang", "de").Build(),
			contains: "[de] a.md:2: \\rel.input: [inclusion:fatal] inclusion cycle",
		},
		{
			name: "failed passes are listed per language",
			err: stderrors.Join(
				LabelError("undefined definition").WithContext("file", "intro_en.md").WithContext("lang", "en").Build(),
				PathError("file not found").WithContext("file", "intro_de.md").WithContext("lang", "de").Build(),
			),
			contains: "[en] intro_en.md: [label:fatal] undefined definition (file=intro_en.md lang=en)\n[de] intro_de.md: [path:fatal] file not found",
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			contains: "Error: unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.FormatError(tt.err)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatError() = %q, want to contain %q", got, tt.contains)
			}
		})
	}

	if got := adapter.FormatError(nil); got != "" {
		t.Errorf("FormatError(nil) = %q, want empty string", got)
	}
}

// customError is a test helper for unclassified errors
type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
