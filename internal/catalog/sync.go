package catalog

import (
	"context"
	"time"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/config"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/storage"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/util"
)

type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg), cfg: cfg}
}

// Sync refreshes the local catalog from the price feed.
func (s *SyncService) Sync(ctx context.Context) (int, error) {
	items, err := s.client.FetchAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) > 0 {
		if err := s.db.UpsertCatalogItems(items, util.NormalizeName); err != nil {
			return 0, err
		}
	}
	_ = s.db.SetMetadata("catalog.last_sync", time.Now().UTC().Format(time.RFC3339))
	return len(items), nil
}
