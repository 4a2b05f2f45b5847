package interfaces

import (
	"context"
	"time"

	"github.com/brandwell/contentforge/internal/models"
)

// ContentGenerator is the common contract of the four generation strategies.
// Generate returns a structured failure result rather than an error for
// runtime failures; errors indicate contract violations (missing required
// context, unsupported platform).
type ContentGenerator interface {
	Generate(ctx context.Context, gc *models.GenerationContext) (*models.GenerationResult, error)
	ValidateContent(text string, platform models.Platform) bool
	PlatformLimits(platform models.Platform) models.PlatformLimits
	EstimateDuration() time.Duration
}

// ProgressTracker maintains the live progress record of each campaign run.
// Implementations must support concurrent reads from status pollers while
// the orchestrator writes.
type ProgressTracker interface {
	CreateProgress(campaignID string, total int) (*models.GenerationProgress, error)
	UpdateCurrent(campaignID, itemID, stepLabel string)
	IncrementCompleted(campaignID string)
	AddError(campaignID string, genErr models.GenerationError)
	CompleteProgress(campaignID string, status models.RunStatus)
	GetProgress(campaignID string) *models.GenerationProgress
}

// TextAreaInferer derives a template's named text areas. The default
// implementation is a name/type heuristic; tenants can plug their own policy.
type TextAreaInferer interface {
	InferAreas(template models.Template) []models.TemplateTextArea
}
