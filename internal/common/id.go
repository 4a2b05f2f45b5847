package common

import (
	"github.com/google/uuid"
)

// NewPublicationID generates a unique publication ID with the "pub_" prefix
// Format: pub_<uuid>
func NewPublicationID() string {
	return "pub_" + uuid.New().String()
}

// NewRunID generates a unique generation run ID with the "run_" prefix
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewAssetID generates a unique media asset ID with the "asset_" prefix
// Format: asset_<uuid>
func NewAssetID() string {
	return "asset_" + uuid.New().String()
}
