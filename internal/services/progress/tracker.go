package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/brandwell/contentforge/internal/common"
	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
)

// Tracker is the in-memory progress store. The orchestrator writes, status
// pollers read concurrently; readers always receive a deep copy.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]*models.GenerationProgress
	logger  arbor.ILogger
}

// NewTracker creates an empty progress tracker
func NewTracker(logger arbor.ILogger) *Tracker {
	return &Tracker{
		records: make(map[string]*models.GenerationProgress),
		logger:  logger,
	}
}

var _ interfaces.ProgressTracker = (*Tracker)(nil)

// CreateProgress registers a new run for a campaign. A campaign with a
// non-terminal record is rejected; that is the duplicate-run guard.
func (t *Tracker) CreateProgress(campaignID string, total int) (*models.GenerationProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.records[campaignID]; ok && !existing.Status.IsTerminal() {
		return nil, fmt.Errorf("campaign %s already has an active run %s", campaignID, existing.RunID)
	}

	record := &models.GenerationProgress{
		RunID:      common.NewRunID(),
		CampaignID: campaignID,
		Status:     models.RunStatusPending,
		TotalItems: total,
		StartedAt:  time.Now(),
	}
	t.records[campaignID] = record

	t.logger.Info().
		Str("campaign_id", campaignID).
		Str("run_id", record.RunID).
		Int("total_items", total).
		Msg("Created generation run")
	return record.Clone(), nil
}

// UpdateCurrent records which item and step the run is working on
func (t *Tracker) UpdateCurrent(campaignID, itemID, stepLabel string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[campaignID]
	if !ok {
		return
	}
	record.Status = models.RunStatusGenerating
	record.CurrentItemID = itemID
	record.CurrentStep = stepLabel
}

// IncrementCompleted bumps the completed count and refreshes the estimate.
// The estimate is average time per completed item times items remaining.
func (t *Tracker) IncrementCompleted(campaignID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[campaignID]
	if !ok {
		return
	}
	record.CompletedItems++

	if record.CompletedItems > 0 {
		elapsed := time.Since(record.StartedAt)
		perItem := elapsed / time.Duration(record.CompletedItems)
		remaining := perItem * time.Duration(record.TotalItems-record.CompletedItems)
		record.EstimatedRemaining = &remaining
	}
}

// AddError appends a per-item failure to the run record
func (t *Tracker) AddError(campaignID string, genErr models.GenerationError) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[campaignID]
	if !ok {
		return
	}
	record.Errors = append(record.Errors, genErr)
}

// CompleteProgress moves the run to a terminal status
func (t *Tracker) CompleteProgress(campaignID string, status models.RunStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[campaignID]
	if !ok {
		return
	}
	now := time.Now()
	record.Status = status
	record.CompletedAt = &now
	record.CurrentItemID = ""
	record.CurrentStep = ""
	record.EstimatedRemaining = nil

	t.logger.Info().
		Str("campaign_id", campaignID).
		Str("run_id", record.RunID).
		Str("status", string(status)).
		Int("completed", record.CompletedItems).
		Int("total", record.TotalItems).
		Int("errors", len(record.Errors)).
		Msg("Generation run finished")
}

// GetProgress returns a deep copy of the campaign's progress, nil when the
// campaign has never run.
func (t *Tracker) GetProgress(campaignID string) *models.GenerationProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	record, ok := t.records[campaignID]
	if !ok {
		return nil
	}
	return record.Clone()
}
