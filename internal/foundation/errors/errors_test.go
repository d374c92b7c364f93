package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDocumentErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
	}{
		{"PathError", PathError("file not found"), CategoryPath},
		{"InclusionError", InclusionError("inclusion cycle"), CategoryInclusion},
		{"CodeError", CodeError("label never closed"), CategoryCode},
		{"RepositoryError", RepositoryError("undeclared repository"), CategoryRepository},
		{"LabelError", LabelError("undefined definition"), CategoryLabel},
		{"MetadataError", MetadataError("unknown key"), CategoryMetadata},
		{"DirectiveError", DirectiveError("unbalanced braces"), CategoryDirective},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.WithContext("file", "book.md").Build()
			if !HasCategory(err, tt.category) {
				t.Errorf("expected category %s, got %s", tt.category, err.Category())
			}
			// Document errors abort the pass and are never retried.
			if !err.IsFatal() || err.CanRetry() {
				t.Errorf("expected fatal, non-retryable error, got %s/%s", err.Severity(), err.RetryStrategy())
			}
		})
	}
}

func TestErrorMessageListsSortedContext(t *testing.T) {
	err := LabelError("undefined definition").WithContext("lang", "en").WithContext("key", "ghost").Build()
	want := "[label:fatal] undefined definition (key=ghost lang=en)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(cause, CategoryRepository, "cannot fetch repository").
		WithContext("repository", "lib").Build()

	if !errors.Is(err, cause) {
		t.Error("expected error to wrap its cause")
	}
	if !strings.HasSuffix(err.Error(), ": connection refused") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	if repo, _ := err.Context().GetString("repository"); repo != "lib" {
		t.Errorf("expected repository context, got %q", repo)
	}
}

func TestClassifiedErrorThroughWrapping(t *testing.T) {
	inner := CodeError("label never closed").WithContext("file", "inner.py").Build()
	outer := fmt.Errorf("expanding book.md: %w", inner.WithContextDefault("file", "book.md").WithContextDefault("lang", "de"))

	classified, ok := AsClassified(outer)
	if !ok {
		t.Fatal("expected wrapped classified error to be found")
	}
	if file, _ := classified.Context().GetString("file"); file != "inner.py" {
		t.Errorf("expected innermost file to be kept, got %s", file)
	}
	if lang, _ := classified.Context().GetString("lang"); lang != "de" {
		t.Errorf("expected lang context to be added, got %s", lang)
	}
	if !HasCategory(outer, CategoryCode) {
		t.Error("expected code category through wrapping")
	}
	if !strings.Contains(outer.Error(), "file=inner.py lang=de") {
		t.Errorf("expected context in message, got %q", outer.Error())
	}
}

func TestJoinedPassErrorsStayClassified(t *testing.T) {
	joined := errors.Join(
		LabelError("undefined definition").WithContext("lang", "en").Build(),
		PathError("file not found").WithContext("lang", "de").Build(),
	)
	if !HasCategory(joined, CategoryLabel) {
		t.Error("expected the first pass error to classify the joined error")
	}
	if !IsClassified(joined) {
		t.Error("expected joined error to be classified")
	}
}
