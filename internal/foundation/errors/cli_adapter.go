package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		return a.exitCodeFromClassified(classified)
	}
	return 1
}

func (a *CLIErrorAdapter) exitCodeFromClassified(err *ClassifiedError) int {
	switch err.Category() {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryPath, CategoryInclusion, CategoryCode, CategoryLabel, CategoryMetadata, CategoryDirective:
		return 3 // Source document must be fixed
	case CategoryAuth:
		return 5
	case CategoryConfig:
		return 7
	case CategoryNetwork, CategoryGit, CategoryRepository:
		return 8 // External system error
	case CategoryInternal:
		return 10
	case CategoryBuild, CategoryFileSystem:
		return 11
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	// Joined errors of independent language passes get one line each.
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		lines := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			lines = append(lines, a.FormatError(e))
		}
		return strings.Join(lines, "\n")
	}
	if classified, ok := AsClassified(err); ok {
		return a.formatClassified(classified, err)
	}
	return fmt.Sprintf("Error: %v", err)
}

func (a *CLIErrorAdapter) formatClassified(classified *ClassifiedError, full error) string {
	if classified.Category() == CategoryInternal && !a.verbose {
		return "Internal error occurred (use -v for details)"
	}
	if loc := Location(classified); loc != "" {
		return fmt.Sprintf("%s: %v", loc, full)
	}
	return fmt.Sprintf("Error: %v", full)
}

// Location renders the source position of a document error as
// "[lang] file:line: \directive", omitting what is unknown. It is empty when
// the error carries no file.
func Location(e *ClassifiedError) string {
	ctx := e.Context()
	file, ok := ctx["file"]
	if !ok {
		return ""
	}
	var b strings.Builder
	if lang, ok := ctx["lang"]; ok && lang != "" {
		fmt.Fprintf(&b, "[%v] ", lang)
	}
	fmt.Fprintf(&b, "%v", file)
	if line, ok := ctx["line"]; ok {
		fmt.Fprintf(&b, ":%v", line)
	}
	if d, ok := ctx["directive"]; ok {
		fmt.Fprintf(&b, ": \\%v", d)
	}
	return b.String()
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		level := a.slogLevelFromSeverity(classified.Severity())
		attrs := []slog.Attr{
			slog.String("category", string(classified.Category())),
		}
		for k, v := range classified.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
		if classified.CanRetry() {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}

func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
