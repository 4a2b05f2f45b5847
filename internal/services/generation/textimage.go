package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
)

const strategyTextImage = "text_image"

// TextImageStrategy generates a caption plus one accompanying image
// anchored on the best-ranked candidate asset.
type TextImageStrategy struct {
	base
}

// Generate produces text and one image for a text+image plan item
func (s *TextImageStrategy) Generate(ctx context.Context, gc *models.GenerationContext) (*models.GenerationResult, error) {
	start := time.Now()
	limits := models.LimitsFor(gc.Item.Platform)

	if len(gc.Assets) == 0 {
		return nil, fmt.Errorf("item %s: text+image generation requires at least one asset", gc.Item.ID)
	}

	s.reportStep("Generating post text")
	text, err := s.generateText(ctx, &interfaces.TextRequest{
		Brief:          gc.Item.Brief,
		Brand:          gc.Brand,
		Platform:       gc.Item.Platform,
		CharacterLimit: limits.MaxCharacters,
	})
	if err != nil {
		return s.fail(strategyTextImage, start, gc.Item, err)
	}

	if !s.ValidateContent(text, gc.Item.Platform) {
		return s.failValidation(strategyTextImage, start, gc.Item, "generated text violates platform content limits")
	}

	s.reportStep("Generating image")
	prompt := buildImagePrompt(text, gc.Brand.Voice)
	s.prompts = append(s.prompts, prompt)

	image, err := s.generateImage(ctx, func(ctx context.Context) (*interfaces.ImageResult, error) {
		return s.images.GenerateImage(ctx, &interfaces.ImageRequest{
			Prompt:    prompt,
			BaseAsset: SelectBestAsset(gc.Assets),
			Width:     limits.ImageWidth,
			Height:    limits.ImageHeight,
			Quality:   s.opts.Quality,
		})
	})
	if err != nil {
		return s.fail(strategyTextImage, start, gc.Item, err)
	}

	return s.finish(strategyTextImage, start, gc.Item, &models.GenerationResult{
		Text:      text,
		ImageURLs: []string{image.URL},
	}), nil
}

// EstimateDuration returns the expected wall time of one invocation
func (s *TextImageStrategy) EstimateDuration() time.Duration {
	return 45 * time.Second
}
