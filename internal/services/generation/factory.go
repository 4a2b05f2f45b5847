package generation

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
)

// Factory builds strategy values. Selection is a pure function of the
// content type; every call returns a fresh strategy so invocations never
// share mutable state.
type Factory struct {
	text    interfaces.TextGenerationService
	images  interfaces.ImageGenerationService
	inferer interfaces.TextAreaInferer
	logger  arbor.ILogger
}

// NewFactory creates a strategy factory. The images service may be nil when
// no image backend is configured; image-bearing content types then fail at
// selection time rather than mid-generation.
func NewFactory(
	text interfaces.TextGenerationService,
	images interfaces.ImageGenerationService,
	inferer interfaces.TextAreaInferer,
	logger arbor.ILogger,
) *Factory {
	if inferer == nil {
		inferer = NewHeuristicAreaInferer()
	}
	return &Factory{
		text:    text,
		images:  images,
		inferer: inferer,
		logger:  logger,
	}
}

// New returns a fresh strategy for the content type
func (f *Factory) New(contentType models.ContentType, opts Options) (interfaces.ContentGenerator, error) {
	if !contentType.IsValid() {
		return nil, fmt.Errorf("unknown content type: %s", contentType)
	}
	if contentType.RequiresImages() && f.images == nil {
		return nil, fmt.Errorf("content type %s requires an image backend, none is configured", contentType)
	}

	b := base{
		text:   f.text,
		images: f.images,
		opts:   opts,
		logger: f.logger,
	}

	switch contentType {
	case models.ContentTypeTextOnly:
		return &TextOnlyStrategy{base: b}, nil
	case models.ContentTypeTextImage:
		return &TextImageStrategy{base: b}, nil
	case models.ContentTypeTextTemplate:
		return &TextTemplateStrategy{base: b, inferer: f.inferer}, nil
	case models.ContentTypeCarousel:
		return &CarouselStrategy{base: b}, nil
	}
	return nil, fmt.Errorf("unknown content type: %s", contentType)
}
