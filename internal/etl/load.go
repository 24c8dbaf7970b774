package etl

import (
	"context"

	"github.com/wardflow/bedcast/internal/models"
	"github.com/wardflow/bedcast/internal/occupancy"
)

// Load inserts cleaned records through the occupancy store and returns how
// many were stored.
func Load(ctx context.Context, store *occupancy.Store, records []models.OccupancyRecord) (int, error) {
	loaded := 0
	for i := range records {
		if _, errCreate := store.Create(ctx, &records[i]); errCreate != nil {
			return loaded, errCreate
		}
		loaded++
	}
	return loaded, nil
}
