package models

import (
	"time"
)

// GenerationContext is the ephemeral per-item input handed to a strategy.
// It is owned exclusively by the invocation that created it and discarded
// after use.
type GenerationContext struct {
	Item     ContentPlanItem
	Brand    BrandGuideline
	Assets   []MediaAsset
	Template *Template
}

// CarouselSlide is one ordered slide of a carousel result
type CarouselSlide struct {
	Index         int    `json:"index"` // 1-based position
	Topic         string `json:"topic"`
	Text          string `json:"text"`
	ProgressLabel string `json:"progress_label"` // "k/N"
	ImageURL      string `json:"image_url"`
}

// GenerationMetadata is the write-once audit trail embedded in a result
type GenerationMetadata struct {
	Strategy     string    `json:"strategy"`
	Provider     string    `json:"provider,omitempty"`
	Prompts      []string  `json:"prompts,omitempty"`
	TemplateID   string    `json:"template_id,omitempty"`
	AssetIDs     []string  `json:"asset_ids,omitempty"`
	GeneratedAt  time.Time `json:"generated_at"`
	RetryCount   int       `json:"retry_count"`
	ProcessingMS int64     `json:"processing_ms"`
}

// GenerationResult is the outcome of one strategy invocation. On success it
// becomes the authoritative content of a Publication once persisted.
type GenerationResult struct {
	Success      bool               `json:"success"`
	Text         string             `json:"text,omitempty"`
	ImageURLs    []string           `json:"image_urls,omitempty"`
	AreaTexts    map[string]string  `json:"area_texts,omitempty"`
	Slides       []CarouselSlide    `json:"slides,omitempty"`
	RetryCount   int                `json:"retry_count"`
	Duration     time.Duration      `json:"duration"`
	ErrorKind    string             `json:"error_kind,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Metadata     GenerationMetadata `json:"metadata"`
}

// GenerationError records one failed plan item inside a run
type GenerationError struct {
	ItemID     string    `json:"item_id"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	RetryCount int       `json:"retry_count"`
}

// RunStatus is the generation run state machine
type RunStatus string

const (
	RunStatusPending             RunStatus = "pending"
	RunStatusGenerating          RunStatus = "generating"
	RunStatusCompleted           RunStatus = "completed"
	RunStatusCompletedWithErrors RunStatus = "completed_with_errors"
	RunStatusFailed              RunStatus = "failed"
	RunStatusCancelled           RunStatus = "cancelled"
)

// IsTerminal reports whether the run has finished
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusCompletedWithErrors, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// GenerationProgress is the live, queryable progress record of one campaign
// run. At most one non-terminal progress record may exist per campaign.
type GenerationProgress struct {
	RunID          string            `json:"run_id"`
	CampaignID     string            `json:"campaign_id"`
	Status         RunStatus         `json:"status"`
	TotalItems     int               `json:"total_items"`
	CompletedItems int               `json:"completed_items"`
	CurrentItemID  string            `json:"current_item_id,omitempty"`
	CurrentStep    string            `json:"current_step,omitempty"`
	Errors         []GenerationError `json:"errors,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	// EstimatedRemaining is nil until the first item completes
	EstimatedRemaining *time.Duration `json:"estimated_remaining,omitempty"`
}

// Clone returns a deep copy safe to hand to concurrent pollers
func (p *GenerationProgress) Clone() *GenerationProgress {
	clone := *p
	clone.Errors = make([]GenerationError, len(p.Errors))
	copy(clone.Errors, p.Errors)
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		clone.CompletedAt = &t
	}
	if p.EstimatedRemaining != nil {
		d := *p.EstimatedRemaining
		clone.EstimatedRemaining = &d
	}
	return &clone
}
