package models

import (
	"fmt"
	"time"
)

// ContentType identifies which generation strategy a plan item requires
type ContentType string

const (
	ContentTypeTextOnly     ContentType = "text_only"
	ContentTypeTextImage    ContentType = "text_image"
	ContentTypeTextTemplate ContentType = "text_template"
	ContentTypeCarousel     ContentType = "carousel"
)

// IsValid reports whether the content type is one of the four supported kinds
func (c ContentType) IsValid() bool {
	switch c {
	case ContentTypeTextOnly, ContentTypeTextImage, ContentTypeTextTemplate, ContentTypeCarousel:
		return true
	}
	return false
}

// RequiresImages reports whether generating this content type needs an
// image-capable backend configured.
func (c ContentType) RequiresImages() bool {
	return c != ContentTypeTextOnly
}

// ContentPlanItem is one scheduled unit of content awaiting generation.
// Items are produced upstream by campaign planning and are immutable once
// a generation run starts.
type ContentPlanItem struct {
	ID          string      `json:"id" yaml:"id" validate:"required"`
	CampaignID  string      `json:"campaign_id" yaml:"campaign_id" validate:"required"`
	Platform    Platform    `json:"platform" yaml:"platform" validate:"required"`
	ContentType ContentType `json:"content_type" yaml:"content_type" validate:"required"`
	Brief       string      `json:"brief" yaml:"brief" validate:"required"`
	ScheduledAt time.Time   `json:"scheduled_at" yaml:"scheduled_at"`
	TemplateID  string      `json:"template_id,omitempty" yaml:"template_id,omitempty"`
	AssetIDs    []string    `json:"asset_ids,omitempty" yaml:"asset_ids,omitempty"`
}

// Validate checks the item fields beyond struct-tag validation
func (i *ContentPlanItem) Validate() error {
	if !i.Platform.IsValid() {
		return fmt.Errorf("unknown platform: %s", i.Platform)
	}
	if !i.ContentType.IsValid() {
		return fmt.Errorf("unknown content type: %s", i.ContentType)
	}
	if i.ContentType == ContentTypeTextTemplate && i.TemplateID == "" {
		return fmt.Errorf("item %s: content type %s requires a template reference", i.ID, i.ContentType)
	}
	return nil
}

// BrandGuideline steers prompt construction for a workspace
type BrandGuideline struct {
	Voice    string   `json:"voice" yaml:"voice"`
	Audience string   `json:"audience" yaml:"audience"`
	Values   []string `json:"values" yaml:"values"`
}
