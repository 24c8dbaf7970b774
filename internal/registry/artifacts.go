package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// artifactSuffix is appended to the model id to form the blob file name.
const artifactSuffix = ".model.json"

// ArtifactStore persists serialized model blobs, one write-once file per model
// id, under a single directory. Location keys are file names relative to the
// directory so the directory can be relocated without rewriting the catalog.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore returns a store rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Save writes a blob for id and returns its location key. Ids are write-once:
// saving over an existing blob fails.
func (s *ArtifactStore) Save(blob []byte, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: artifact id is empty", ErrValidation)
	}
	location := id + artifactSuffix
	path := filepath.Join(s.dir, location)

	// O_EXCL enforces the write-once contract.
	f, errOpen := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errOpen != nil {
		if os.IsExist(errOpen) {
			return "", fmt.Errorf("artifacts: blob for %s already exists", id)
		}
		return "", fmt.Errorf("artifacts: create %s: %w", path, errOpen)
	}
	if _, errWrite := f.Write(blob); errWrite != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("artifacts: write %s: %w", path, errWrite)
	}
	if errClose := f.Close(); errClose != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("artifacts: close %s: %w", path, errClose)
	}
	return location, nil
}

// Load reads the blob at location, failing with ErrArtifactMissing when the
// file cannot be found. Metadata may exist while the backing file does not;
// that inconsistency is surfaced distinctly from a catalog miss.
func (s *ArtifactStore) Load(location string) ([]byte, error) {
	data, errRead := os.ReadFile(filepath.Join(s.dir, location))
	if errRead != nil {
		if os.IsNotExist(errRead) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, location)
		}
		return nil, fmt.Errorf("artifacts: read %s: %w", location, errRead)
	}
	return data, nil
}

// Delete removes the blob at location. Deleting an already-missing blob
// succeeds silently.
func (s *ArtifactStore) Delete(location string) error {
	if errRemove := os.Remove(filepath.Join(s.dir, location)); errRemove != nil && !os.IsNotExist(errRemove) {
		return fmt.Errorf("artifacts: delete %s: %w", location, errRemove)
	}
	return nil
}
