package interfaces

import (
	"context"

	"github.com/brandwell/contentforge/internal/models"
)

// TextRequest is a provider-agnostic text generation request
type TextRequest struct {
	Brief          string
	Brand          models.BrandGuideline
	Platform       models.Platform
	CharacterLimit int

	// Provider forces a specific backend ("gemini" or "claude");
	// empty uses the configured default. Set by fallback recovery.
	Provider string
}

// StructuredTextRequest asks for machine-parseable output. The caller must
// defensively parse the response and fall back on malformed output.
type StructuredTextRequest struct {
	Brief      string
	SchemaHint map[string]interface{}
	Provider   string
}

// TextGenerationService produces post text from a brief and brand voice.
// Implementations fail with provider errors classified per the retry taxonomy.
type TextGenerationService interface {
	GenerateText(ctx context.Context, req *TextRequest) (string, error)

	// GenerateStructuredText returns the raw provider output; when the
	// backend supports response schemas the output conforms to SchemaHint,
	// otherwise it is best-effort JSON.
	GenerateStructuredText(ctx context.Context, req *StructuredTextRequest) (string, error)
}

// ImageRequest generates an image from a prompt, optionally anchored on a
// base asset for visual composition.
type ImageRequest struct {
	Prompt    string
	BaseAsset *models.MediaAsset
	Width     int
	Height    int
	Quality   string
}

// ImageResult describes one generated image
type ImageResult struct {
	URL       string
	Width     int
	Height    int
	SizeBytes int64
}

// TemplateImageRequest composes a background, template overlay, and
// per-area texts into a final image.
type TemplateImageRequest struct {
	Template      models.Template
	BaseAsset     models.MediaAsset
	BackgroundURL string
	TextOverlays  map[string]string
	Quality       string
}

// CarouselSlideRequest generates one carousel slide. CarouselContext holds
// the already-generated slide image URLs as a visual coherence hint.
type CarouselSlideRequest struct {
	BaseAsset       models.MediaAsset
	SlideText       string
	Topic           string
	ProgressLabel   string
	CarouselContext []string
	Width           int
	Height          int
	Quality         string
}

// ImageGenerationService produces images via an external generative backend
type ImageGenerationService interface {
	GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResult, error)
	GenerateTemplateImage(ctx context.Context, req *TemplateImageRequest) (*ImageResult, error)
	GenerateCarouselSlide(ctx context.Context, req *CarouselSlideRequest) (*ImageResult, error)
}
