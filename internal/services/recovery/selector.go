package recovery

import (
	"github.com/ternarybob/arbor"

	"github.com/brandwell/contentforge/internal/models"
	"github.com/brandwell/contentforge/internal/retry"
)

// Action is a recovery tactic applied when an item fails after its
// step-level retries are exhausted.
type Action string

const (
	// ActionExponentialBackoff retries the item with a longer backoff schedule
	ActionExponentialBackoff Action = "exponential_backoff"
	// ActionRetryWithTimeout retries the item with an extended step timeout
	ActionRetryWithTimeout Action = "retry_with_timeout"
	// ActionFallbackAgent retries the item on the alternate text provider
	ActionFallbackAgent Action = "fallback_agent"
	// ActionSimplifiedGeneration retries with a less demanding content type
	ActionSimplifiedGeneration Action = "simplified_generation"
	// ActionContentOptimization retries with a stricter, shorter prompt
	ActionContentOptimization Action = "content_optimization"
	// ActionStandardRetry retries the item once with unchanged settings
	ActionStandardRetry Action = "standard_retry"
	// ActionNone gives up on the item
	ActionNone Action = "none"
)

// Selector maps a failure to a recovery action. Each item gets at most one
// recovery escalation per run; the orchestrator enforces that bound.
type Selector struct {
	fallbackAvailable bool
	logger            arbor.ILogger
}

// NewSelector creates a recovery selector. fallbackAvailable reports whether
// an alternate text provider is configured.
func NewSelector(fallbackAvailable bool, logger arbor.ILogger) *Selector {
	return &Selector{
		fallbackAvailable: fallbackAvailable,
		logger:            logger,
	}
}

// Select picks the recovery action for a failure kind on a content type
func (s *Selector) Select(kind retry.ErrorKind, contentType models.ContentType) Action {
	var action Action
	switch kind {
	case retry.KindRateLimit:
		action = ActionExponentialBackoff
	case retry.KindTimeout, retry.KindNetwork:
		action = ActionRetryWithTimeout
	case retry.KindServiceUnavailable:
		if s.fallbackAvailable {
			action = ActionFallbackAgent
		} else {
			action = ActionExponentialBackoff
		}
	case retry.KindQuotaExceeded:
		if s.fallbackAvailable {
			action = ActionFallbackAgent
		} else {
			action = ActionNone
		}
	case retry.KindValidation:
		action = ActionContentOptimization
	case retry.KindAuthentication:
		action = ActionNone
	default:
		// Unclassifiable failures on demanding content types step down
		// to a simpler type; simple types just retry once.
		if _, ok := Simplify(contentType); ok {
			action = ActionSimplifiedGeneration
		} else {
			action = ActionStandardRetry
		}
	}

	s.logger.Debug().
		Str("kind", string(kind)).
		Str("content_type", string(contentType)).
		Str("action", string(action)).
		Msg("Selected recovery action")
	return action
}

// Simplify returns the next-simpler content type for a step-down retry.
// text_only has nowhere simpler to go.
func Simplify(contentType models.ContentType) (models.ContentType, bool) {
	switch contentType {
	case models.ContentTypeCarousel, models.ContentTypeTextTemplate:
		return models.ContentTypeTextImage, true
	case models.ContentTypeTextImage:
		return models.ContentTypeTextOnly, true
	}
	return contentType, false
}
