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

// PublicationStorage implements the PublicationStore interface for Badger
type PublicationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPublicationStorage creates a new PublicationStorage instance
func NewPublicationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PublicationStore {
	return &PublicationStorage{
		db:     db,
		logger: logger,
	}
}

func (s *PublicationStorage) SavePublication(ctx context.Context, publication *models.Publication) error {
	if publication.ID == "" {
		return fmt.Errorf("publication ID is required")
	}
	if publication.CreatedAt.IsZero() {
		publication.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(publication.ID, publication); err != nil {
		return fmt.Errorf("failed to save publication: %w", err)
	}

	s.logger.Debug().
		Str("publication_id", publication.ID).
		Str("campaign_id", publication.CampaignID).
		Msg("Publication saved")
	return nil
}

// GetPublicationsByCampaign returns a campaign's publications in creation order
func (s *PublicationStorage) GetPublicationsByCampaign(ctx context.Context, campaignID string) ([]models.Publication, error) {
	var publications []models.Publication
	err := s.db.Store().Find(&publications, badgerhold.Where("CampaignID").Eq(campaignID).Index("CampaignID").SortBy("CreatedAt"))
	if err != nil {
		return nil, fmt.Errorf("failed to find publications for campaign %s: %w", campaignID, err)
	}
	return publications, nil
}
