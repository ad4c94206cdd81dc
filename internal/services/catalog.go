package services

import (
	"context"

	"github.com/euacreations/streamvault/internal/database"
	"github.com/euacreations/streamvault/internal/models"
)

// CatalogService exposes read access to the published media catalog.
type CatalogService struct {
	store CatalogReadStore
}

func NewCatalogService(store CatalogReadStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.MediaAsset, error) {
	return s.store.GetMediaByID(ctx, id)
}

// List returns completed assets matching the filters. Listing defaults to
// published assets only; pending, processing and failed rows stay invisible
// unless the caller asks for them.
func (s *CatalogService) List(ctx context.Context, filters database.MediaFilters) ([]*models.MediaAsset, error) {
	return s.store.QueryMedia(ctx, filters)
}
