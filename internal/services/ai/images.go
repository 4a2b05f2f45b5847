package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/brandwell/contentforge/internal/common"
	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
	"github.com/brandwell/contentforge/internal/retry"
)

// ImageService generates images via Gemini image models and writes the
// resulting bytes to the configured filesystem images directory.
// It implements interfaces.ImageGenerationService; calls are made exactly
// once, retry policy belongs to the caller.
type ImageService struct {
	imagesConfig *common.ImagesConfig
	geminiConfig *common.GeminiConfig
	outputDir    string
	audit        AuditLogger
	logger       arbor.ILogger

	client  *genai.Client
	limiter *rate.Limiter
}

// NewImageService creates a new Gemini-backed image generation service
func NewImageService(
	imagesConfig *common.ImagesConfig,
	geminiConfig *common.GeminiConfig,
	outputDir string,
	audit AuditLogger,
	logger arbor.ILogger,
) *ImageService {
	if audit == nil {
		audit = NewNullAuditLogger()
	}
	interval := common.ParseDuration(geminiConfig.RateLimit, 4*time.Second)

	return &ImageService{
		imagesConfig: imagesConfig,
		geminiConfig: geminiConfig,
		outputDir:    outputDir,
		audit:        audit,
		logger:       logger,
		limiter:      rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (s *ImageService) getClient(ctx context.Context) (*genai.Client, error) {
	if s.client != nil {
		return s.client, nil
	}

	if s.geminiConfig.APIKey == "" {
		return nil, retry.NewProviderError(401, "Gemini API key not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	s.client = client
	return client, nil
}

// GenerateImage produces an image from a prompt. When a base asset is
// supplied the multimodal composite model anchors the result on it.
func (s *ImageService) GenerateImage(ctx context.Context, req *interfaces.ImageRequest) (*interfaces.ImageResult, error) {
	start := time.Now()

	var result *interfaces.ImageResult
	var err error
	if req.BaseAsset != nil {
		result, err = s.composeWithAsset(ctx, req.Prompt, *req.BaseAsset, req.Width, req.Height)
	} else {
		result, err = s.generateFromPrompt(ctx, req.Prompt, req.Width, req.Height)
	}

	s.audit.LogOperation(OperationImage, string(ProviderGemini), err == nil, time.Since(start), err)
	return result, err
}

// GenerateTemplateImage composes a background, template overlay, and
// per-area texts into one final image.
func (s *ImageService) GenerateTemplateImage(ctx context.Context, req *interfaces.TemplateImageRequest) (*interfaces.ImageResult, error) {
	start := time.Now()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Compose a %s social media graphic using the supplied image as background.", req.Template.Type)
	sb.WriteString(" Render the following text areas exactly as given, cleanly laid out:")
	for area, text := range req.TextOverlays {
		fmt.Fprintf(&sb, "\n- %s: %q", area, text)
	}
	if req.Quality != "" {
		fmt.Fprintf(&sb, "\nQuality: %s.", req.Quality)
	}

	asset := req.BaseAsset
	if req.BackgroundURL != "" {
		asset = models.MediaAsset{URL: req.BackgroundURL, MimeType: "image/png"}
	}

	result, err := s.composeWithAsset(ctx, sb.String(), asset, req.Template.Width, req.Template.Height)
	s.audit.LogOperation(OperationImage, string(ProviderGemini), err == nil, time.Since(start), err)
	return result, err
}

// GenerateCarouselSlide produces one slide, passing the already-generated
// slide URLs as a visual coherence hint.
func (s *ImageService) GenerateCarouselSlide(ctx context.Context, req *interfaces.CarouselSlideRequest) (*interfaces.ImageResult, error) {
	start := time.Now()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create carousel slide %s about %q.", req.ProgressLabel, req.Topic)
	fmt.Fprintf(&sb, " Slide text: %q.", req.SlideText)
	if len(req.CarouselContext) > 0 {
		fmt.Fprintf(&sb, " Keep the visual style consistent with the %d earlier slides in this carousel: %s.",
			len(req.CarouselContext), strings.Join(req.CarouselContext, ", "))
	}
	if req.Quality != "" {
		fmt.Fprintf(&sb, " Quality: %s.", req.Quality)
	}

	result, err := s.composeWithAsset(ctx, sb.String(), req.BaseAsset, req.Width, req.Height)
	s.audit.LogOperation(OperationImage, string(ProviderGemini), err == nil, time.Since(start), err)
	return result, err
}

// generateFromPrompt uses the prompt-only image model
func (s *ImageService) generateFromPrompt(ctx context.Context, prompt string, width, height int) (*interfaces.ImageResult, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, common.ParseDuration(s.geminiConfig.Timeout, 2*time.Minute))
	defer cancel()

	config := &genai.GenerateImagesConfig{
		AspectRatio:    aspectRatioFor(width, height),
		OutputMIMEType: "image/png",
	}

	resp, err := client.Models.GenerateImages(callCtx, s.imagesConfig.Model, prompt, config)
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("empty image response from Gemini API")
	}

	return s.writeImage(resp.GeneratedImages[0].Image.ImageBytes, width, height)
}

// composeWithAsset uses the multimodal model to generate an image anchored
// on the supplied asset bytes.
func (s *ImageService) composeWithAsset(ctx context.Context, prompt string, asset models.MediaAsset, width, height int) (*interfaces.ImageResult, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	assetBytes, mimeType, err := loadAssetBytes(ctx, asset)
	if err != nil {
		return nil, &retry.ClassifiedError{Kind: retry.KindNetwork, Message: fmt.Sprintf("failed to load base asset %s: %v", asset.ID, err), Err: err}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, common.ParseDuration(s.geminiConfig.Timeout, 2*time.Minute))
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(assetBytes, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := client.Models.GenerateContent(callCtx, s.imagesConfig.CompositeModel, contents, nil)
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty composite response from Gemini API")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return s.writeImage(part.InlineData.Data, width, height)
		}
	}

	return nil, fmt.Errorf("no image data in composite response")
}

// writeImage persists image bytes under the output directory
func (s *ImageService) writeImage(data []byte, width, height int) (*interfaces.ImageResult, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}

	path := filepath.Join(s.outputDir, "img_"+uuid.New().String()+".png")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}

	s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("Generated image written")

	return &interfaces.ImageResult{
		URL:       path,
		Width:     width,
		Height:    height,
		SizeBytes: int64(len(data)),
	}, nil
}

// loadAssetBytes fetches asset content from a local path or URL
func loadAssetBytes(ctx context.Context, asset models.MediaAsset) ([]byte, string, error) {
	mimeType := asset.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}

	if strings.HasPrefix(asset.URL, "http://") || strings.HasPrefix(asset.URL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("asset fetch returned status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		if ct := resp.Header.Get("Content-Type"); ct != "" {
			mimeType = ct
		}
		return data, mimeType, nil
	}

	data, err := os.ReadFile(asset.URL)
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}

// aspectRatioFor maps target dimensions onto the closest supported ratio
func aspectRatioFor(width, height int) string {
	if width <= 0 || height <= 0 {
		return "1:1"
	}
	ratio := float64(width) / float64(height)
	switch {
	case ratio > 1.5:
		return "16:9"
	case ratio > 1.1:
		return "4:3"
	case ratio > 0.9:
		return "1:1"
	case ratio > 0.7:
		return "4:5"
	default:
		return "9:16"
	}
}
