package generation

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/ternarybob/arbor"

	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
	"github.com/brandwell/contentforge/internal/retry"
)

// Options tunes one strategy invocation. The orchestrator builds these from
// configuration and adjusts them when a recovery action requires it.
type Options struct {
	// Provider forces a text backend ("gemini" or "claude"); empty uses the default
	Provider string

	// RetryConfig is the step-level retry policy
	RetryConfig retry.Config

	// StepTimeout bounds each external call
	StepTimeout time.Duration

	// Quality is passed through to image generation
	Quality string

	// MaxCarouselSlides caps the carousel slide count
	MaxCarouselSlides int

	// OnStep receives human-readable step labels as generation progresses
	OnStep func(label string)
}

// base carries the shared wiring and behavior of all four strategies.
// A strategy value is built fresh per invocation and never reused.
type base struct {
	text   interfaces.TextGenerationService
	images interfaces.ImageGenerationService
	opts   Options
	logger arbor.ILogger

	retries int
	prompts []string
}

func (b *base) reportStep(label string) {
	if b.opts.OnStep != nil {
		b.opts.OnStep(label)
	}
}

// generateText runs one text step under the retry policy and accumulates
// the retry count into the invocation total.
func (b *base) generateText(ctx context.Context, req *interfaces.TextRequest) (string, error) {
	req.Provider = b.opts.Provider
	text, attempts, err := retry.Do(ctx, b.opts.RetryConfig, b.logger, func(ctx context.Context) (string, error) {
		callCtx, cancel := b.stepContext(ctx)
		defer cancel()
		return b.text.GenerateText(callCtx, req)
	})
	b.retries += attempts - 1
	if err != nil {
		return "", err
	}
	b.prompts = append(b.prompts, req.Brief)
	return strings.TrimSpace(text), nil
}

// generateStructuredText runs one structured text step under the retry policy
func (b *base) generateStructuredText(ctx context.Context, req *interfaces.StructuredTextRequest) (string, error) {
	req.Provider = b.opts.Provider
	text, attempts, err := retry.Do(ctx, b.opts.RetryConfig, b.logger, func(ctx context.Context) (string, error) {
		callCtx, cancel := b.stepContext(ctx)
		defer cancel()
		return b.text.GenerateStructuredText(callCtx, req)
	})
	b.retries += attempts - 1
	if err != nil {
		return "", err
	}
	b.prompts = append(b.prompts, req.Brief)
	return strings.TrimSpace(text), nil
}

// generateImage runs one image step under the retry policy
func (b *base) generateImage(ctx context.Context, op func(context.Context) (*interfaces.ImageResult, error)) (*interfaces.ImageResult, error) {
	result, attempts, err := retry.Do(ctx, b.opts.RetryConfig, b.logger, func(ctx context.Context) (*interfaces.ImageResult, error) {
		callCtx, cancel := b.stepContext(ctx)
		defer cancel()
		return op(callCtx)
	})
	b.retries += attempts - 1
	return result, err
}

func (b *base) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.opts.StepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.opts.StepTimeout)
}

// PlatformLimits returns the limit table entry for a platform
func (b *base) PlatformLimits(platform models.Platform) models.PlatformLimits {
	return models.LimitsFor(platform)
}

// ValidateContent checks generated text against the platform constraints.
// Validation runs before any image work so an over-limit caption fails fast.
func (b *base) ValidateContent(text string, platform models.Platform) bool {
	limits := models.LimitsFor(platform)

	if len([]rune(text)) > limits.MaxCharacters {
		return false
	}
	if !limits.SupportsLineBreaks && strings.ContainsAny(text, "\n\r") {
		return false
	}
	if !limits.SupportsHashtags && strings.Contains(text, "#") {
		return false
	}
	if !limits.SupportsEmojis && containsEmoji(text) {
		return false
	}
	return true
}

func containsEmoji(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.So, r) || (r >= 0x1F000 && r <= 0x1FAFF) {
			return true
		}
	}
	return false
}

// finish assembles a success result with the accumulated invocation state
func (b *base) finish(strategy string, start time.Time, item models.ContentPlanItem, result *models.GenerationResult) *models.GenerationResult {
	result.Success = true
	result.RetryCount = b.retries
	result.Duration = time.Since(start)
	result.Metadata = models.GenerationMetadata{
		Strategy:     strategy,
		Provider:     b.opts.Provider,
		Prompts:      b.prompts,
		TemplateID:   item.TemplateID,
		AssetIDs:     item.AssetIDs,
		GeneratedAt:  time.Now(),
		RetryCount:   b.retries,
		ProcessingMS: time.Since(start).Milliseconds(),
	}
	return result
}

// fail assembles a structured failure result. Cancellation is not a failure
// of the item; it propagates as an error so the run can stop cleanly.
func (b *base) fail(strategy string, start time.Time, item models.ContentPlanItem, stepErr error) (*models.GenerationResult, error) {
	if errors.Is(stepErr, context.Canceled) {
		return nil, stepErr
	}

	classified := retry.AsClassified(stepErr)
	b.logger.Warn().
		Str("item_id", item.ID).
		Str("strategy", strategy).
		Str("kind", string(classified.Kind)).
		Err(stepErr).
		Msg("Generation step failed")

	return &models.GenerationResult{
		Success:      false,
		RetryCount:   b.retries,
		Duration:     time.Since(start),
		ErrorKind:    string(classified.Kind),
		ErrorMessage: classified.Message,
		Metadata: models.GenerationMetadata{
			Strategy:     strategy,
			Provider:     b.opts.Provider,
			Prompts:      b.prompts,
			TemplateID:   item.TemplateID,
			AssetIDs:     item.AssetIDs,
			GeneratedAt:  time.Now(),
			RetryCount:   b.retries,
			ProcessingMS: time.Since(start).Milliseconds(),
		},
	}, nil
}

// failValidation builds a failure result for generated content that violates
// platform constraints. Recovery maps this to content optimization.
func (b *base) failValidation(strategy string, start time.Time, item models.ContentPlanItem, message string) (*models.GenerationResult, error) {
	return b.fail(strategy, start, item, retry.NewValidationError(message))
}
