package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// CatalogFileName is the metadata document inside a registry directory. It is
// the only file rewritten on mutation; artifact blobs are written once.
const CatalogFileName = "model_metadata.json"

// catalogDocument is the on-disk shape of the whole catalog.
type catalogDocument struct {
	Models map[string]ModelRecord `json:"models"`
}

// Catalog is the metadata store for registered model versions. Every mutation
// rewrites the whole document through a temp-file-plus-rename so a concurrent
// file reader observes either the full prior or the full new state, never a
// torn write. Concurrent writers must still be serialized by the caller.
type Catalog struct {
	path string

	mu  sync.RWMutex
	doc catalogDocument
}

// OpenCatalog loads the catalog document at dir, creating an empty one in
// memory when the file does not exist yet.
func OpenCatalog(dir string) (*Catalog, error) {
	c := &Catalog{path: filepath.Join(dir, CatalogFileName)}
	if errLoad := c.Reload(); errLoad != nil {
		return nil, errLoad
	}
	return c, nil
}

// Reload re-reads the catalog document from disk, replacing the in-memory view.
// Used after another process rewrote the file.
func (c *Catalog) Reload() error {
	doc := catalogDocument{Models: map[string]ModelRecord{}}

	data, errRead := os.ReadFile(c.path)
	if errRead != nil {
		if os.IsNotExist(errRead) {
			c.mu.Lock()
			c.doc = doc
			c.mu.Unlock()
			return nil
		}
		return fmt.Errorf("catalog: read %s: %w", c.path, errRead)
	}
	if errUnmarshal := json.Unmarshal(data, &doc); errUnmarshal != nil {
		return fmt.Errorf("catalog: parse %s: %w", c.path, errUnmarshal)
	}
	if doc.Models == nil {
		doc.Models = map[string]ModelRecord{}
	}

	c.mu.Lock()
	c.doc = doc
	c.mu.Unlock()
	return nil
}

// Upsert stores a record and persists the full document atomically.
func (c *Catalog) Upsert(record ModelRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous, existed := c.doc.Models[record.ModelID]
	c.doc.Models[record.ModelID] = record
	if errSave := c.save(); errSave != nil {
		if existed {
			c.doc.Models[record.ModelID] = previous
		} else {
			delete(c.doc.Models, record.ModelID)
		}
		return errSave
	}
	return nil
}

// Get returns the record for id or ErrNotFound.
func (c *Catalog) Get(id string) (ModelRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, ok := c.doc.Models[id]
	if !ok {
		return ModelRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return record, nil
}

// List returns records ordered by creation time, newest first. When name is
// non-empty only records of that model family are returned.
func (c *Catalog) List(name string) []ModelRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]ModelRecord, 0, len(c.doc.Models))
	for _, record := range c.doc.Models {
		if name != "" && record.ModelName != name {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ModelID > records[j].ModelID
	})
	return records
}

// SetStatus updates the lifecycle status of a record. Status is the only
// mutable field; everything else is fixed at registration.
func (c *Catalog) SetStatus(id, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.doc.Models[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	previous := record.Status
	record.Status = status
	c.doc.Models[id] = record
	if errSave := c.save(); errSave != nil {
		record.Status = previous
		c.doc.Models[id] = record
		return errSave
	}
	return nil
}

// Remove deletes the record for id, failing with ErrNotFound when absent.
func (c *Catalog) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.doc.Models[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(c.doc.Models, id)
	if errSave := c.save(); errSave != nil {
		c.doc.Models[id] = record
		return errSave
	}
	return nil
}

// hasVersion reports whether a (name, version) pair is already registered.
func (c *Catalog) hasVersion(name, version string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, record := range c.doc.Models {
		if record.ModelName == name && record.Version == version {
			return true
		}
	}
	return false
}

// save writes the document to a temp file in the same directory and renames it
// over the catalog path. Callers hold c.mu.
func (c *Catalog) save() error {
	data, errMarshal := json.MarshalIndent(c.doc, "", "  ")
	if errMarshal != nil {
		return fmt.Errorf("catalog: marshal: %w", errMarshal)
	}

	dir := filepath.Dir(c.path)
	tmp, errCreate := os.CreateTemp(dir, CatalogFileName+".tmp-*")
	if errCreate != nil {
		return fmt.Errorf("catalog: create temp file: %w", errCreate)
	}
	tmpName := tmp.Name()

	if _, errWrite := tmp.Write(data); errWrite != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: write temp file: %w", errWrite)
	}
	if errSync := tmp.Sync(); errSync != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: sync temp file: %w", errSync)
	}
	if errClose := tmp.Close(); errClose != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: close temp file: %w", errClose)
	}
	if errRename := os.Rename(tmpName, c.path); errRename != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: replace %s: %w", c.path, errRename)
	}
	return nil
}
