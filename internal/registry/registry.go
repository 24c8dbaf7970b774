package registry

import (
	"fmt"
	"os"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// Selection directions for GetBest.
const (
	// DirectionMin selects the record with the smallest metric value.
	DirectionMin = "min"
	// DirectionMax selects the record with the largest metric value.
	DirectionMax = "max"
)

// ModelDecoder turns a stored blob back into a usable model object. The
// concrete decoder lives with the model families; the registry only needs to
// know that a failed decode means the artifact is unusable.
type ModelDecoder func(modelType string, blob []byte) (any, error)

// Registry is the facade over the metadata catalog and the artifact store. It
// owns id/version generation, uniqueness, lifecycle transitions, and
// metric-based selection. Mutations are not synchronized internally; callers
// must serialize writers against a given instance.
type Registry struct {
	catalog   *Catalog
	artifacts *ArtifactStore
	decode    ModelDecoder

	now func() time.Time
}

// Open creates the registry directory if needed and loads its catalog.
func Open(dir string, decode ModelDecoder) (*Registry, error) {
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return nil, fmt.Errorf("registry: create dir %s: %w", dir, errMkdir)
	}
	catalog, errCatalog := OpenCatalog(dir)
	if errCatalog != nil {
		return nil, errCatalog
	}
	return &Registry{
		catalog:   catalog,
		artifacts: NewArtifactStore(dir),
		decode:    decode,
		now:       time.Now,
	}, nil
}

// Catalog exposes the underlying catalog for read-side collaborators such as
// the file watcher.
func (r *Registry) Catalog() *Catalog {
	return r.catalog
}

// Register persists the artifact blob and commits a new active metadata
// record, returning the generated model id. The blob is saved before the
// record so metadata never points at a missing artifact; if the metadata
// commit fails the blob is removed again.
func (r *Registry) Register(params RegisterParams) (string, error) {
	if errValidate := params.validate(); errValidate != nil {
		return "", errValidate
	}

	version := params.Version
	if version == "" {
		version = r.nextVersion(params.Name)
	} else if r.catalog.hasVersion(params.Name, version) {
		return "", fmt.Errorf("%w: %s %s", ErrDuplicateVersion, params.Name, version)
	}
	modelID := params.Name + "_" + version

	location, errSave := r.artifacts.Save(params.Artifact, modelID)
	if errSave != nil {
		return "", errSave
	}

	record := ModelRecord{
		ModelID:          modelID,
		ModelName:        params.Name,
		ModelType:        params.ModelType,
		Version:          version,
		ArtifactLocation: location,
		Features:         append([]string(nil), params.Features...),
		Target:           params.Target,
		Metrics:          copyMetrics(params.Metrics),
		SampleCount:      params.SampleCount,
		CreatedAt:        r.now().UTC(),
		Status:           StatusActive,
	}
	if errUpsert := r.catalog.Upsert(record); errUpsert != nil {
		if errCleanup := r.artifacts.Delete(location); errCleanup != nil {
			log.WithError(errCleanup).Warnf("registry: orphaned artifact %s", location)
		}
		return "", errUpsert
	}

	log.WithFields(log.Fields{"model_id": modelID, "model_type": params.ModelType}).Info("model registered")
	return modelID, nil
}

// GetModelInfo returns the metadata record for id.
func (r *Registry) GetModelInfo(id string) (ModelRecord, error) {
	return r.catalog.Get(id)
}

// LoadModel resolves the metadata record, reads the artifact blob, and decodes
// it into a model object. A missing id fails ErrNotFound; an existing id whose
// blob is absent or undeserializable fails ErrArtifactMissing.
func (r *Registry) LoadModel(id string) (any, error) {
	record, errGet := r.catalog.Get(id)
	if errGet != nil {
		return nil, errGet
	}
	blob, errLoad := r.artifacts.Load(record.ArtifactLocation)
	if errLoad != nil {
		return nil, errLoad
	}
	model, errDecode := r.decode(record.ModelType, blob)
	if errDecode != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrArtifactMissing, id, errDecode)
	}
	return model, nil
}

// ListModels returns records ordered newest-first, optionally filtered by
// model family name.
func (r *Registry) ListModels(name string) []ModelRecord {
	return r.catalog.List(name)
}

// GetBest returns the id of the active record of the given family whose
// metric is extremal in the given direction (DirectionMin by default).
// Records not carrying the metric are ineligible rather than an error; ties
// are broken by most recent creation time.
func (r *Registry) GetBest(name, metric, direction string) (string, error) {
	if direction == "" {
		direction = DirectionMin
	}
	if direction != DirectionMin && direction != DirectionMax {
		return "", fmt.Errorf("%w: direction must be %q or %q", ErrValidation, DirectionMin, DirectionMax)
	}

	var (
		bestID    string
		bestValue float64
		bestAt    time.Time
	)
	for _, record := range r.catalog.List(name) {
		if record.Status != StatusActive {
			continue
		}
		value, ok := record.Metrics[metric]
		if !ok {
			continue
		}
		better := bestID == ""
		if !better {
			switch {
			case direction == DirectionMin && value < bestValue:
				better = true
			case direction == DirectionMax && value > bestValue:
				better = true
			case value == bestValue && record.CreatedAt.After(bestAt):
				better = true
			}
		}
		if better {
			bestID, bestValue, bestAt = record.ModelID, value, record.CreatedAt
		}
	}
	if bestID == "" {
		return "", fmt.Errorf("%w: no active %q model with metric %q", ErrNoModelFound, name, metric)
	}
	return bestID, nil
}

// Deactivate marks a record inactive. The transition is one-way: a corrected
// model must be registered as a new version.
func (r *Registry) Deactivate(id string) error {
	if errSet := r.catalog.SetStatus(id, StatusInactive); errSet != nil {
		return errSet
	}
	log.WithField("model_id", id).Info("model deactivated")
	return nil
}

// Delete removes the artifact blob (idempotently) and then purges the metadata
// record. It fails ErrNotFound only when the record itself is already gone;
// once deleted the id is permanently invalid.
func (r *Registry) Delete(id string) error {
	record, errGet := r.catalog.Get(id)
	if errGet != nil {
		return errGet
	}
	if errDelete := r.artifacts.Delete(record.ArtifactLocation); errDelete != nil {
		return errDelete
	}
	if errRemove := r.catalog.Remove(id); errRemove != nil {
		return errRemove
	}
	log.WithField("model_id", id).Info("model deleted")
	return nil
}

// ActiveModels returns the ids of all records with active status, sorted for
// stable output.
func (r *Registry) ActiveModels() []string {
	ids := make([]string, 0)
	for _, record := range r.catalog.List("") {
		if record.Status == StatusActive {
			ids = append(ids, record.ModelID)
		}
	}
	sort.Strings(ids)
	return ids
}

// nextVersion generates a timestamp-based version token, bumping a numeric
// suffix when the same second already produced a version for this family so
// generated tokens stay unique and non-decreasing.
func (r *Registry) nextVersion(name string) string {
	base := "v" + r.now().UTC().Format("20060102_150405")
	version := base
	for i := 2; r.catalog.hasVersion(name, version); i++ {
		version = fmt.Sprintf("%s_%d", base, i)
	}
	return version
}

func copyMetrics(metrics map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		out[k] = v
	}
	return out
}
