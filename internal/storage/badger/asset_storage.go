package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
)

// AssetStorage implements the AssetRepository interface for Badger
type AssetStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAssetStorage creates a new AssetStorage instance
func NewAssetStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AssetRepository {
	return &AssetStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AssetStorage) GetAsset(ctx context.Context, assetID string) (*models.MediaAsset, error) {
	var asset models.MediaAsset
	if err := s.db.Store().Get(assetID, &asset); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("asset not found: %s", assetID)
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &asset, nil
}

// GetAssets resolves asset references, preserving the requested order.
// A single missing asset fails the whole lookup.
func (s *AssetStorage) GetAssets(ctx context.Context, assetIDs []string) ([]models.MediaAsset, error) {
	assets := make([]models.MediaAsset, 0, len(assetIDs))
	for _, id := range assetIDs {
		asset, err := s.GetAsset(ctx, id)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

func (s *AssetStorage) SaveAsset(ctx context.Context, asset *models.MediaAsset) error {
	if asset.ID == "" {
		return fmt.Errorf("asset ID is required")
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(asset.ID, asset); err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}
