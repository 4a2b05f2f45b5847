package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/brandwell/contentforge/internal/common"
	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
	"github.com/brandwell/contentforge/internal/retry"
	"github.com/brandwell/contentforge/internal/services/generation"
	"github.com/brandwell/contentforge/internal/services/recovery"
)

// Orchestrator drives campaign generation runs: one run per campaign at a
// time, items processed strictly sequentially, per-item failures isolated
// so one broken item never aborts the rest of the run.
type Orchestrator struct {
	factory          *generation.Factory
	tracker          interfaces.ProgressTracker
	recovery         *recovery.Selector
	assets           interfaces.AssetRepository
	templates        interfaces.TemplateRepository
	publications     interfaces.PublicationStore
	config           *common.GenerationConfig
	quality          string
	fallbackProvider string
	logger           arbor.ILogger

	mu   sync.Mutex
	runs map[string]context.CancelFunc
}

// New creates a generation orchestrator
func New(
	factory *generation.Factory,
	tracker interfaces.ProgressTracker,
	recoverySelector *recovery.Selector,
	assets interfaces.AssetRepository,
	templates interfaces.TemplateRepository,
	publications interfaces.PublicationStore,
	config *common.GenerationConfig,
	quality string,
	fallbackProvider string,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		factory:          factory,
		tracker:          tracker,
		recovery:         recoverySelector,
		assets:           assets,
		templates:        templates,
		publications:     publications,
		config:           config,
		quality:          quality,
		fallbackProvider: fallbackProvider,
		logger:           logger,
		runs:             make(map[string]context.CancelFunc),
	}
}

// RunCampaign generates all items of a campaign synchronously and returns
// the final progress record. A second run for the same campaign while one
// is active is rejected with the existing progress attached.
func (o *Orchestrator) RunCampaign(ctx context.Context, campaignID string, items []models.ContentPlanItem, brand models.BrandGuideline) (*models.GenerationProgress, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("campaign %s has no plan items", campaignID)
	}

	runCtx, err := o.register(ctx, campaignID, len(items))
	if err != nil {
		return o.tracker.GetProgress(campaignID), err
	}
	defer o.unregister(campaignID)

	log := o.logger.WithCorrelationId(campaignID)
	log.Info().Int("items", len(items)).Msg("Starting campaign generation run")

	cancelled := false
	for _, item := range items {
		if runCtx.Err() != nil {
			cancelled = true
			break
		}
		o.processItem(runCtx, campaignID, item, brand, log)
	}
	if runCtx.Err() != nil {
		cancelled = true
	}

	status := o.terminalStatus(campaignID, cancelled)
	o.tracker.CompleteProgress(campaignID, status)
	return o.tracker.GetProgress(campaignID), nil
}

// StartCampaign launches a run in the background and returns the initial
// progress snapshot. Duplicate runs are rejected the same way RunCampaign
// rejects them.
func (o *Orchestrator) StartCampaign(ctx context.Context, campaignID string, items []models.ContentPlanItem, brand models.BrandGuideline) (*models.GenerationProgress, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("campaign %s has no plan items", campaignID)
	}

	o.mu.Lock()
	if _, active := o.runs[campaignID]; active {
		o.mu.Unlock()
		return o.tracker.GetProgress(campaignID), fmt.Errorf("campaign %s already has an active run", campaignID)
	}
	o.mu.Unlock()

	progress, err := o.tracker.CreateProgress(campaignID, len(items))
	if err != nil {
		return o.tracker.GetProgress(campaignID), err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.mu.Lock()
	o.runs[campaignID] = cancel
	o.mu.Unlock()

	go func() {
		defer o.unregister(campaignID)

		log := o.logger.WithCorrelationId(campaignID)
		log.Info().Int("items", len(items)).Msg("Starting campaign generation run")

		cancelled := false
		for _, item := range items {
			if runCtx.Err() != nil {
				cancelled = true
				break
			}
			o.processItem(runCtx, campaignID, item, brand, log)
		}
		if runCtx.Err() != nil {
			cancelled = true
		}
		o.tracker.CompleteProgress(campaignID, o.terminalStatus(campaignID, cancelled))
	}()

	return progress, nil
}

// CancelCampaign requests cooperative cancellation of the campaign's active
// run. Already-completed items keep their publications.
func (o *Orchestrator) CancelCampaign(campaignID string) error {
	o.mu.Lock()
	cancel, ok := o.runs[campaignID]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("campaign %s has no active run", campaignID)
	}
	cancel()
	o.logger.Info().Str("campaign_id", campaignID).Msg("Cancellation requested")
	return nil
}

// GetProgress returns the campaign's progress record, nil when it never ran
func (o *Orchestrator) GetProgress(campaignID string) *models.GenerationProgress {
	return o.tracker.GetProgress(campaignID)
}

// register performs the atomic duplicate-run check and creates the run
func (o *Orchestrator) register(ctx context.Context, campaignID string, total int) (context.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, active := o.runs[campaignID]; active {
		return nil, fmt.Errorf("campaign %s already has an active run", campaignID)
	}
	if _, err := o.tracker.CreateProgress(campaignID, total); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.runs[campaignID] = cancel
	return runCtx, nil
}

func (o *Orchestrator) unregister(campaignID string) {
	o.mu.Lock()
	if cancel, ok := o.runs[campaignID]; ok {
		cancel()
		delete(o.runs, campaignID)
	}
	o.mu.Unlock()
}

// processItem generates one plan item, consulting recovery at most once.
// All failure paths record an error and return; only cancellation escapes.
func (o *Orchestrator) processItem(ctx context.Context, campaignID string, item models.ContentPlanItem, brand models.BrandGuideline, log arbor.ILogger) {
	o.tracker.UpdateCurrent(campaignID, item.ID, "Preparing")

	if err := item.Validate(); err != nil {
		o.recordError(campaignID, item.ID, retry.KindValidation, err.Error(), 0)
		return
	}

	gc, err := o.buildContext(ctx, item, brand)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.recordError(campaignID, item.ID, retry.Classify(err), err.Error(), 0)
		return
	}

	result, err := o.generateOnce(ctx, campaignID, item, gc, o.baseOptions(campaignID, item.ID))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.recordError(campaignID, item.ID, retry.Classify(err), err.Error(), 0)
		return
	}

	if !result.Success {
		result = o.recoverItem(ctx, campaignID, &item, gc, result, log)
		if result == nil {
			return
		}
	}

	if !result.Success {
		o.recordError(campaignID, item.ID, retry.ErrorKind(result.ErrorKind), result.ErrorMessage, result.RetryCount)
		return
	}

	if err := o.persist(ctx, campaignID, item, result); err != nil {
		log.Error().Err(err).Str("item_id", item.ID).Msg("Failed to persist publication")
		o.recordError(campaignID, item.ID, retry.Classify(err), err.Error(), result.RetryCount)
		return
	}

	o.tracker.IncrementCompleted(campaignID)
	log.Info().
		Str("item_id", item.ID).
		Str("content_type", string(item.ContentType)).
		Int("retries", result.RetryCount).
		Dur("duration", result.Duration).
		Msg("Item generated")
}

// recoverItem applies at most one recovery escalation to a failed item.
// Returns nil when the run was cancelled mid-recovery.
func (o *Orchestrator) recoverItem(ctx context.Context, campaignID string, item *models.ContentPlanItem, gc *models.GenerationContext, failed *models.GenerationResult, log arbor.ILogger) *models.GenerationResult {
	kind := retry.ErrorKind(failed.ErrorKind)
	action := o.recovery.Select(kind, item.ContentType)
	if action == recovery.ActionNone {
		return failed
	}

	log.Info().
		Str("item_id", item.ID).
		Str("kind", string(kind)).
		Str("action", string(action)).
		Msg("Applying recovery action")

	opts := o.baseOptions(campaignID, item.ID)
	retryItem := *item

	switch action {
	case recovery.ActionExponentialBackoff:
		opts.RetryConfig.BaseDelay *= 2
		opts.RetryConfig.MaxDelay *= 2
	case recovery.ActionRetryWithTimeout:
		opts.StepTimeout = common.ParseDuration(o.config.ExtendedTimeout, 5*time.Minute)
	case recovery.ActionFallbackAgent:
		if o.fallbackProvider == "" {
			return failed
		}
		opts.Provider = o.fallbackProvider
	case recovery.ActionContentOptimization:
		retryItem.Brief = optimizeBrief(retryItem.Brief, retryItem.Platform)
	case recovery.ActionSimplifiedGeneration:
		simpler, ok := recovery.Simplify(retryItem.ContentType)
		if !ok {
			return failed
		}
		retryItem.ContentType = simpler
	case recovery.ActionStandardRetry:
		// unchanged settings, one more pass
	}

	retryGC := *gc
	retryGC.Item = retryItem

	result, err := o.generateOnce(ctx, campaignID, retryItem, &retryGC, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return failed
	}

	// The publication reflects what was actually generated, so a stepped-down
	// content type replaces the original item.
	*item = retryItem
	result.RetryCount += failed.RetryCount
	return result
}

// generateOnce builds a fresh strategy and runs one generation pass
func (o *Orchestrator) generateOnce(ctx context.Context, campaignID string, item models.ContentPlanItem, gc *models.GenerationContext, opts generation.Options) (*models.GenerationResult, error) {
	strategy, err := o.factory.New(item.ContentType, opts)
	if err != nil {
		return nil, err
	}
	return strategy.Generate(ctx, gc)
}

// buildContext resolves the item's asset and template references
func (o *Orchestrator) buildContext(ctx context.Context, item models.ContentPlanItem, brand models.BrandGuideline) (*models.GenerationContext, error) {
	gc := &models.GenerationContext{
		Item:  item,
		Brand: brand,
	}

	if len(item.AssetIDs) > 0 {
		assets, err := o.assets.GetAssets(ctx, item.AssetIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assets for item %s: %w", item.ID, err)
		}
		gc.Assets = assets
	}

	if item.TemplateID != "" {
		template, err := o.templates.GetTemplate(ctx, item.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve template %s for item %s: %w", item.TemplateID, item.ID, err)
		}
		gc.Template = template
	}

	return gc, nil
}

// persist writes the successful result as a draft publication
func (o *Orchestrator) persist(ctx context.Context, campaignID string, item models.ContentPlanItem, result *models.GenerationResult) error {
	publication := &models.Publication{
		ID:          common.NewPublicationID(),
		CampaignID:  campaignID,
		ItemID:      item.ID,
		Platform:    item.Platform,
		ContentType: item.ContentType,
		Text:        result.Text,
		ImageURLs:   result.ImageURLs,
		AreaTexts:   result.AreaTexts,
		Slides:      result.Slides,
		ScheduledAt: item.ScheduledAt,
		Status:      models.PublicationStatusDraft,
		Metadata:    result.Metadata,
		CreatedAt:   time.Now(),
	}
	return o.publications.SavePublication(ctx, publication)
}

func (o *Orchestrator) baseOptions(campaignID, itemID string) generation.Options {
	return generation.Options{
		RetryConfig: retry.Config{
			MaxAttempts:       o.config.MaxAttempts,
			BaseDelay:         common.ParseDuration(o.config.BaseDelay, 2*time.Second),
			MaxDelay:          common.ParseDuration(o.config.MaxDelay, 30*time.Second),
			BackoffMultiplier: o.config.BackoffMultiplier,
		},
		StepTimeout:       common.ParseDuration(o.config.StepTimeout, 2*time.Minute),
		Quality:           o.quality,
		MaxCarouselSlides: o.config.MaxCarouselSlides,
		OnStep: func(label string) {
			o.tracker.UpdateCurrent(campaignID, itemID, label)
		},
	}
}

func (o *Orchestrator) recordError(campaignID, itemID string, kind retry.ErrorKind, message string, retryCount int) {
	o.tracker.AddError(campaignID, models.GenerationError{
		ItemID:     itemID,
		Kind:       string(kind),
		Message:    message,
		Timestamp:  time.Now(),
		RetryCount: retryCount,
	})
}

// terminalStatus derives the run's final state from its progress record
func (o *Orchestrator) terminalStatus(campaignID string, cancelled bool) models.RunStatus {
	if cancelled {
		return models.RunStatusCancelled
	}

	progress := o.tracker.GetProgress(campaignID)
	if progress == nil {
		return models.RunStatusFailed
	}

	switch {
	case len(progress.Errors) == 0:
		return models.RunStatusCompleted
	case progress.CompletedItems == 0:
		return models.RunStatusFailed
	default:
		return models.RunStatusCompletedWithErrors
	}
}

// optimizeBrief tightens a brief for the content optimization retry
func optimizeBrief(brief string, platform models.Platform) string {
	limits := models.LimitsFor(platform)
	var sb strings.Builder
	sb.WriteString(brief)
	fmt.Fprintf(&sb, " Keep the text concise and strictly under %d characters.", limits.MaxCharacters)
	if !limits.SupportsLineBreaks {
		sb.WriteString(" Single line, no line breaks.")
	}
	if !limits.SupportsEmojis {
		sb.WriteString(" No emojis.")
	}
	return sb.String()
}
