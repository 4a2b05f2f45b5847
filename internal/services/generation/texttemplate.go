package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
)

const strategyTextTemplate = "text_template"

// TextTemplateStrategy composes a background image with a branded template
// overlay and model-written text for each template area, plus a caption.
type TextTemplateStrategy struct {
	base
	inferer interfaces.TextAreaInferer
}

// Generate produces the caption, area texts, and composed template image
func (s *TextTemplateStrategy) Generate(ctx context.Context, gc *models.GenerationContext) (*models.GenerationResult, error) {
	start := time.Now()

	if gc.Template == nil {
		return nil, fmt.Errorf("item %s: template generation requires a resolved template", gc.Item.ID)
	}
	template := *gc.Template
	limits := models.LimitsFor(gc.Item.Platform)

	s.reportStep("Generating caption")
	caption, err := s.generateText(ctx, &interfaces.TextRequest{
		Brief:          gc.Item.Brief,
		Brand:          gc.Brand,
		Platform:       gc.Item.Platform,
		CharacterLimit: limits.MaxCharacters,
	})
	if err != nil {
		return s.fail(strategyTextTemplate, start, gc.Item, err)
	}
	if !s.ValidateContent(caption, gc.Item.Platform) {
		return s.failValidation(strategyTextTemplate, start, gc.Item, "generated caption violates platform content limits")
	}

	s.reportStep("Generating background image")
	backgroundPrompt := buildImagePrompt(gc.Item.Brief, gc.Brand.Voice)
	s.prompts = append(s.prompts, backgroundPrompt)

	background, err := s.generateImage(ctx, func(ctx context.Context) (*interfaces.ImageResult, error) {
		return s.images.GenerateImage(ctx, &interfaces.ImageRequest{
			Prompt:    backgroundPrompt,
			BaseAsset: SelectBestAsset(gc.Assets),
			Width:     template.Width,
			Height:    template.Height,
			Quality:   s.opts.Quality,
		})
	})
	if err != nil {
		return s.fail(strategyTextTemplate, start, gc.Item, err)
	}

	areas := s.inferer.InferAreas(template)

	s.reportStep("Writing template texts")
	areaTexts, err := s.generateAreaTexts(ctx, gc, areas)
	if err != nil {
		return s.fail(strategyTextTemplate, start, gc.Item, err)
	}

	s.reportStep("Composing final image")
	var baseAsset models.MediaAsset
	if best := SelectBestAsset(gc.Assets); best != nil {
		baseAsset = *best
	}
	final, err := s.generateImage(ctx, func(ctx context.Context) (*interfaces.ImageResult, error) {
		return s.images.GenerateTemplateImage(ctx, &interfaces.TemplateImageRequest{
			Template:      template,
			BaseAsset:     baseAsset,
			BackgroundURL: background.URL,
			TextOverlays:  areaTexts,
			Quality:       s.opts.Quality,
		})
	})
	if err != nil {
		return s.fail(strategyTextTemplate, start, gc.Item, err)
	}

	return s.finish(strategyTextTemplate, start, gc.Item, &models.GenerationResult{
		Text:      caption,
		ImageURLs: []string{final.URL},
		AreaTexts: areaTexts,
	}), nil
}

// generateAreaTexts asks for all area texts in one batched structured call,
// then hard-truncates each to its area limit.
func (s *TextTemplateStrategy) generateAreaTexts(ctx context.Context, gc *models.GenerationContext, areas []models.TemplateTextArea) (map[string]string, error) {
	properties := make(map[string]interface{}, len(areas))
	required := make([]interface{}, 0, len(areas))
	var brief string

	brief = fmt.Sprintf("Write the text for a %s social media template about: %s.", gc.Template.Type, gc.Item.Brief)
	if gc.Brand.Voice != "" {
		brief += fmt.Sprintf(" Brand voice: %s.", gc.Brand.Voice)
	}
	for _, area := range areas {
		brief += fmt.Sprintf(" %s (%q): at most %d characters.", area.Label, area.ID, area.MaxCharacters)
		properties[area.ID] = map[string]interface{}{
			"type":        "string",
			"description": fmt.Sprintf("%s, max %d characters", area.Label, area.MaxCharacters),
		}
		required = append(required, area.ID)
	}

	raw, err := s.generateStructuredText(ctx, &interfaces.StructuredTextRequest{
		Brief: brief,
		SchemaHint: map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	})
	if err != nil {
		return nil, err
	}

	parsed := map[string]string{}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		s.logger.Warn().Err(err).Str("item_id", gc.Item.ID).Msg("Unparseable area text response, using per-area fallback")
	}

	texts := make(map[string]string, len(areas))
	for _, area := range areas {
		text := parsed[area.ID]
		if text == "" {
			text = gc.Item.Brief
		}
		texts[area.ID] = truncateWithEllipsis(text, area.MaxCharacters)
	}
	return texts, nil
}

// EstimateDuration returns the expected wall time of one invocation
func (s *TextTemplateStrategy) EstimateDuration() time.Duration {
	return 90 * time.Second
}
