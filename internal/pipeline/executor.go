package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/gopipeline/internal/advisor"
	"github.com/dbsmedya/gopipeline/internal/logger"
)

// Retry defaults when the configuration does not specify values.
const (
	DefaultMaxRetries = 2
	DefaultBackoff    = time.Second
)

const retryPrompt = `A pipeline stage failed with the following error. Should we retry or abort?

Stage: %s
Attempt: %d/%d
Error: %s
Error Type: %T

Consider:
1. Is this a transient error (network, timeout) or permanent (invalid data, auth)?
2. Will retrying likely succeed?
3. What's the risk of retry vs abort?

Respond with: RETRY or ABORT, followed by brief reasoning.`

// Executor wraps a stage invocation with bounded retries. Between failed
// attempts it may consult the advisor for a RETRY/ABORT call; the advisor
// can cut retries short but never extend them, and when it is absent or
// unreachable the executor simply retries until attempts are exhausted.
type Executor struct {
	advisor    advisor.Client
	maxRetries int
	backoff    time.Duration
	logger     *logger.Logger
}

// NewExecutor creates an executor allowing maxRetries retries after the
// first attempt. Negative maxRetries and non-positive backoff fall back to
// the defaults. A nil client disables advisory retry decisions.
func NewExecutor(client advisor.Client, maxRetries int, backoff time.Duration, log *logger.Logger) *Executor {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Executor{
		advisor:    client,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     log,
	}
}

// Do runs fn, retrying on failure up to the configured bound. The final
// attempt's error always surfaces; the backoff pause honors ctx.
func (e *Executor) Do(ctx context.Context, stage string, fn func() error) error {
	attempts := e.maxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		e.logger.Warnf("Stage %s attempt %d/%d failed: %v", stage, attempt, attempts, lastErr)

		if e.advisorSaysAbort(ctx, stage, attempt, attempts, lastErr) {
			e.logger.Errorf("Advisor recommends aborting stage %s, not retrying", stage)
			return lastErr
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("stage %s interrupted: %w", stage, ctx.Err())
		case <-time.After(e.backoff):
		}
	}

	e.logger.Errorf("Stage %s failed after %d attempts: %v", stage, attempts, lastErr)
	return lastErr
}

// advisorSaysAbort asks the advisor whether a failed attempt is worth
// retrying. Only an answer containing ABORT stops the retry loop; errors,
// garbage and a nil client all mean "keep retrying".
func (e *Executor) advisorSaysAbort(ctx context.Context, stage string, attempt, attempts int, failure error) bool {
	if e.advisor == nil {
		return false
	}

	prompt := fmt.Sprintf(retryPrompt, stage, attempt, attempts, failure, failure)
	response, err := e.advisor.Generate(ctx, prompt)
	if err != nil {
		e.logger.Warnf("Advisor retry consultation failed, retrying anyway: %v", err)
		return false
	}

	e.logger.Infof("Advisor retry analysis for %s: %.200s", stage, response)
	return strings.Contains(strings.ToUpper(response), "ABORT")
}
