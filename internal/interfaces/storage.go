package interfaces

import (
	"context"

	"github.com/brandwell/contentforge/internal/models"
)

// AssetRepository supplies candidate media assets for generation
type AssetRepository interface {
	GetAsset(ctx context.Context, assetID string) (*models.MediaAsset, error)
	GetAssets(ctx context.Context, assetIDs []string) ([]models.MediaAsset, error)
	SaveAsset(ctx context.Context, asset *models.MediaAsset) error
}

// TemplateRepository resolves template references on plan items
type TemplateRepository interface {
	GetTemplate(ctx context.Context, templateID string) (*models.Template, error)
	SaveTemplate(ctx context.Context, template *models.Template) error
}

// PublicationStore persists finished generation results. The generation
// core only ever writes publications.
type PublicationStore interface {
	SavePublication(ctx context.Context, publication *models.Publication) error
}
