package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
)

const strategyCarousel = "carousel"

// CarouselStrategy generates an ordered multi-slide carousel: a caption,
// a topic plan, then one text+image pair per slide generated sequentially
// so each slide can reference the ones before it.
type CarouselStrategy struct {
	base
}

// Generate produces the caption and ordered slides for a carousel item
func (s *CarouselStrategy) Generate(ctx context.Context, gc *models.GenerationContext) (*models.GenerationResult, error) {
	start := time.Now()
	limits := models.LimitsFor(gc.Item.Platform)

	if limits.MaxSlides == 0 {
		return nil, fmt.Errorf("platform %s does not support carousels", gc.Item.Platform)
	}
	if len(gc.Assets) == 0 {
		return nil, fmt.Errorf("item %s: carousel generation requires at least one asset", gc.Item.ID)
	}

	slideCount := limits.MaxSlides
	if len(gc.Assets) < slideCount {
		slideCount = len(gc.Assets)
	}
	if s.opts.MaxCarouselSlides > 0 && s.opts.MaxCarouselSlides < slideCount {
		slideCount = s.opts.MaxCarouselSlides
	}

	s.reportStep("Generating caption")
	captionBrief := fmt.Sprintf("%s. The post is a %d-slide carousel; the caption introduces it.",
		gc.Item.Brief, slideCount)
	caption, err := s.generateText(ctx, &interfaces.TextRequest{
		Brief:          captionBrief,
		Brand:          gc.Brand,
		Platform:       gc.Item.Platform,
		CharacterLimit: limits.MaxCharacters,
	})
	if err != nil {
		return s.fail(strategyCarousel, start, gc.Item, err)
	}
	if !s.ValidateContent(caption, gc.Item.Platform) {
		return s.failValidation(strategyCarousel, start, gc.Item, "generated caption violates platform content limits")
	}

	s.reportStep("Planning slide topics")
	plan, err := s.planTopics(ctx, gc, slideCount)
	if err != nil {
		return s.fail(strategyCarousel, start, gc.Item, err)
	}

	ranked := RankAssets(gc.Assets)
	slides := make([]models.CarouselSlide, 0, slideCount)
	var priorURLs []string

	for i := 0; i < slideCount; i++ {
		label := fmt.Sprintf("%d/%d", i+1, slideCount)
		topic := plan.Topics[i]
		s.reportStep(fmt.Sprintf("Generating slide %s", label))

		slideBrief := fmt.Sprintf("Write the on-image text for slide %s of a carousel about %q. This slide covers: %s. One or two short sentences.",
			label, gc.Item.Brief, topic)
		if plan.Fallback {
			slideBrief = fmt.Sprintf("Write the on-image text for slide %s of a carousel about %q. One or two short sentences continuing the story.",
				label, gc.Item.Brief)
		}

		slideText, err := s.generateText(ctx, &interfaces.TextRequest{
			Brief:          slideBrief,
			Brand:          gc.Brand,
			Platform:       gc.Item.Platform,
			CharacterLimit: 200,
		})
		if err != nil {
			return s.fail(strategyCarousel, start, gc.Item, err)
		}

		image, err := s.generateImage(ctx, func(ctx context.Context) (*interfaces.ImageResult, error) {
			return s.images.GenerateCarouselSlide(ctx, &interfaces.CarouselSlideRequest{
				BaseAsset:       ranked[i%len(ranked)],
				SlideText:       slideText,
				Topic:           topic,
				ProgressLabel:   label,
				CarouselContext: priorURLs,
				Width:           limits.ImageWidth,
				Height:          limits.ImageHeight,
				Quality:         s.opts.Quality,
			})
		})
		if err != nil {
			return s.fail(strategyCarousel, start, gc.Item, err)
		}

		priorURLs = append(priorURLs, image.URL)
		slides = append(slides, models.CarouselSlide{
			Index:         i + 1,
			Topic:         topic,
			Text:          slideText,
			ProgressLabel: label,
			ImageURL:      image.URL,
		})
	}

	urls := make([]string, len(slides))
	for i, slide := range slides {
		urls[i] = slide.ImageURL
	}

	return s.finish(strategyCarousel, start, gc.Item, &models.GenerationResult{
		Text:      caption,
		ImageURLs: urls,
		Slides:    slides,
	}), nil
}

// planTopics asks for a structured topic list and parses it defensively
func (s *CarouselStrategy) planTopics(ctx context.Context, gc *models.GenerationContext, slideCount int) (TopicPlan, error) {
	brief := fmt.Sprintf(
		"Plan a %d-slide social media carousel about: %s. Return exactly %d short slide topics that build on each other.",
		slideCount, gc.Item.Brief, slideCount)

	raw, err := s.generateStructuredText(ctx, &interfaces.StructuredTextRequest{
		Brief: brief,
		SchemaHint: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"topics": map[string]interface{}{
					"type":        "array",
					"description": fmt.Sprintf("exactly %d slide topics in order", slideCount),
					"items":       map[string]interface{}{"type": "string"},
				},
			},
			"required": []interface{}{"topics"},
		},
	})
	if err != nil {
		return TopicPlan{}, err
	}

	plan := ParseTopicPlan(raw, slideCount)
	if plan.Fallback {
		s.logger.Warn().Str("item_id", gc.Item.ID).Msg("Unparseable topic plan, using positional topics")
	}
	return plan, nil
}

// EstimateDuration returns the expected wall time of one invocation
func (s *CarouselStrategy) EstimateDuration() time.Duration {
	return 3 * time.Minute
}
