package git

import (
	stderrors "errors"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// ClassifyGitError translates go-git errors, typed or not, into ClassifiedErrors.
func ClassifyGitError(err error, op string, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	builder := errors.GitError("git operation failed").
		WithCause(err).
		WithContext("op", op).
		WithContext("url", url)

	l := strings.ToLower(err.Error())
	switch {
	case stderrors.As(err, new(*AuthError)):
		builder.WithCategory(errors.CategoryAuth).WithRetry(errors.RetryNever)
	case stderrors.As(err, new(*NotFoundError)):
		builder.WithCategory(errors.CategoryNotFound).WithRetry(errors.RetryNever)
	case stderrors.As(err, new(*UnsupportedProtocolError)):
		builder.WithCategory(errors.CategoryConfig).WithRetry(errors.RetryNever)
	case stderrors.As(err, new(*RateLimitError)):
		builder.WithCategory(errors.CategoryNetwork).RateLimit()
	case stderrors.As(err, new(*NetworkTimeoutError)):
		builder.WithCategory(errors.CategoryNetwork).Retryable()
	case strings.Contains(l, "remote hung up") || strings.Contains(l, "connection reset") || strings.Contains(l, "no route to host"):
		builder.WithCategory(errors.CategoryNetwork).Retryable()
	}
	return builder.Build()
}

// isPermanent reports whether retrying err cannot help.
func isPermanent(err error) bool {
	if err == nil {
		return false
	}
	ce, ok := errors.AsClassified(err)
	if !ok {
		return false
	}
	return !ce.CanRetry()
}
