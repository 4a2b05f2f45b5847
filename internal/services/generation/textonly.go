package generation

import (
	"context"
	"time"

	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
)

const strategyTextOnly = "text_only"

// TextOnlyStrategy generates a platform-constrained caption with no imagery
type TextOnlyStrategy struct {
	base
}

// Generate produces the post text for a text-only plan item
func (s *TextOnlyStrategy) Generate(ctx context.Context, gc *models.GenerationContext) (*models.GenerationResult, error) {
	start := time.Now()
	limits := models.LimitsFor(gc.Item.Platform)

	s.reportStep("Generating post text")
	text, err := s.generateText(ctx, &interfaces.TextRequest{
		Brief:          gc.Item.Brief,
		Brand:          gc.Brand,
		Platform:       gc.Item.Platform,
		CharacterLimit: limits.MaxCharacters,
	})
	if err != nil {
		return s.fail(strategyTextOnly, start, gc.Item, err)
	}

	if !s.ValidateContent(text, gc.Item.Platform) {
		return s.failValidation(strategyTextOnly, start, gc.Item, "generated text violates platform content limits")
	}

	return s.finish(strategyTextOnly, start, gc.Item, &models.GenerationResult{
		Text: text,
	}), nil
}

// EstimateDuration returns the expected wall time of one invocation
func (s *TextOnlyStrategy) EstimateDuration() time.Duration {
	return 10 * time.Second
}
