package git

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/retry"
)

// Delay multipliers keyed by transient failure type.
const (
	multRateLimit      = 3.0
	multNetworkTimeout = 1.0
)

// withRetry runs fn until it succeeds, fails permanently or the policy is exhausted.
func (c *Client) withRetry(ctx context.Context, op, url string, fn func() (Snapshot, error)) (Snapshot, error) {
	pol := c.opts.Policy
	var lastErr error
	for attempt := 0; attempt <= pol.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying git operation", slog.String("operation", op), logfields.URL(url), slog.Int("attempt", attempt))
		}
		snap, err := fn()
		if err == nil {
			return snap, nil
		}
		lastErr = err
		if isPermanent(err) {
			slog.Error("permanent git error", slog.String("operation", op), logfields.URL(url), logfields.Error(err))
			return Snapshot{}, err
		}
		if attempt == pol.MaxRetries {
			break
		}
		delay := pol.Delay(attempt + 1)
		switch {
		case stderrors.As(err, new(*RateLimitError)):
			delay = time.Duration(float64(delay) * multRateLimit)
		case stderrors.As(err, new(*NetworkTimeoutError)):
			delay = time.Duration(float64(delay) * multNetworkTimeout)
		}
		if serr := retry.Sleep(ctx, delay); serr != nil {
			return Snapshot{}, errors.WrapError(serr, errors.CategoryNetwork, "git operation cancelled").
				WithContext("op", op).WithContext("url", url).Build()
		}
	}
	return Snapshot{}, errors.WrapError(lastErr, errors.CategoryGit, "git operation failed after retries").
		WithContext("op", op).WithContext("url", url).WithContext("attempts", pol.MaxRetries+1).Build()
}
