package models

import "time"

// MediaAssetKind enumerates candidate asset types
type MediaAssetKind string

const (
	MediaAssetImage MediaAssetKind = "image"
	MediaAssetVideo MediaAssetKind = "video"
)

// MediaAsset is a candidate media file supplied by the asset repository
type MediaAsset struct {
	ID        string         `json:"id" yaml:"id" badgerhold:"index"`
	Kind      MediaAssetKind `json:"kind" yaml:"kind"`
	URL       string         `json:"url" yaml:"url"`
	MimeType  string         `json:"mime_type" yaml:"mime_type"`
	Width     int            `json:"width" yaml:"width"`
	Height    int            `json:"height" yaml:"height"`
	SizeBytes int64          `json:"size_bytes" yaml:"size_bytes"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
}

// PixelArea returns width*height, used for asset ranking
func (a *MediaAsset) PixelArea() int {
	return a.Width * a.Height
}
