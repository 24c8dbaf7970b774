package etl

import (
	"context"

	"github.com/wardflow/bedcast/internal/occupancy"
	log "github.com/sirupsen/logrus"
)

// Run executes the extract, transform, and load steps for one CSV file.
func Run(ctx context.Context, store *occupancy.Store, csvPath string) error {
	raw, errExtract := ExtractCSV(csvPath)
	if errExtract != nil {
		return errExtract
	}
	cleaned := Transform(raw)
	loaded, errLoad := Load(ctx, store, cleaned)
	if errLoad != nil {
		return errLoad
	}
	log.WithFields(log.Fields{
		"file":    csvPath,
		"rows":    len(raw),
		"skipped": len(raw) - len(cleaned),
		"loaded":  loaded,
	}).Info("etl pipeline complete")
	return nil
}
