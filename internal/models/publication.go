package models

import "time"

// PublicationStatus is the lifecycle state of a persisted publication
type PublicationStatus string

const (
	PublicationStatusDraft     PublicationStatus = "draft"
	PublicationStatusScheduled PublicationStatus = "scheduled"
	PublicationStatusPublished PublicationStatus = "published"
)

// Publication is the persisted outcome of a successful generation.
// The generation core writes publications and never reads them back.
type Publication struct {
	ID          string             `json:"id" badgerhold:"index"`
	CampaignID  string             `json:"campaign_id" badgerhold:"index"`
	ItemID      string             `json:"item_id"`
	Platform    Platform           `json:"platform"`
	ContentType ContentType        `json:"content_type"`
	Text        string             `json:"text"`
	ImageURLs   []string           `json:"image_urls,omitempty"`
	AreaTexts   map[string]string  `json:"area_texts,omitempty"`
	Slides      []CarouselSlide    `json:"slides,omitempty"`
	ScheduledAt time.Time          `json:"scheduled_at"`
	Status      PublicationStatus  `json:"status"`
	Metadata    GenerationMetadata `json:"metadata"`
	CreatedAt   time.Time          `json:"created_at"`
}
