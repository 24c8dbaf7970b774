package registry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func record(id, name, version string, createdAt time.Time) ModelRecord {
	return ModelRecord{
		ModelID:          id,
		ModelName:        name,
		ModelType:        "linear",
		Version:          version,
		ArtifactLocation: id + artifactSuffix,
		Features:         []string{"year"},
		Target:           "occupied_beds",
		CreatedAt:        createdAt,
		Status:           StatusActive,
	}
}

func TestCatalogUpsertPersistsFullDocument(t *testing.T) {
	dir := t.TempDir()
	catalog, errOpen := OpenCatalog(dir)
	if errOpen != nil {
		t.Fatalf("open catalog: %v", errOpen)
	}

	now := time.Now().UTC()
	if errUpsert := catalog.Upsert(record("bed_xgb_v1", "bed_xgb", "v1", now)); errUpsert != nil {
		t.Fatalf("upsert: %v", errUpsert)
	}

	data, errRead := os.ReadFile(filepath.Join(dir, CatalogFileName))
	if errRead != nil {
		t.Fatalf("read catalog file: %v", errRead)
	}
	var doc struct {
		Models map[string]json.RawMessage `json:"models"`
	}
	if errUnmarshal := json.Unmarshal(data, &doc); errUnmarshal != nil {
		t.Fatalf("parse catalog file: %v", errUnmarshal)
	}
	if _, ok := doc.Models["bed_xgb_v1"]; !ok {
		t.Fatalf("expected bed_xgb_v1 in persisted document, got %v", doc.Models)
	}

	// No temp files may survive a successful save.
	entries, errList := os.ReadDir(dir)
	if errList != nil {
		t.Fatalf("read dir: %v", errList)
	}
	for _, entry := range entries {
		if entry.Name() != CatalogFileName {
			t.Fatalf("unexpected leftover file %s", entry.Name())
		}
	}
}

func TestCatalogListOrdering(t *testing.T) {
	catalog, errOpen := OpenCatalog(t.TempDir())
	if errOpen != nil {
		t.Fatalf("open catalog: %v", errOpen)
	}

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"bed_xgb_v1", "bed_xgb_v2", "bed_xgb_v3"} {
		r := record(id, "bed_xgb", id[len("bed_xgb_"):], base.Add(time.Duration(i)*time.Hour))
		if errUpsert := catalog.Upsert(r); errUpsert != nil {
			t.Fatalf("upsert %s: %v", id, errUpsert)
		}
	}

	records := catalog.List("bed_xgb")
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"bed_xgb_v3", "bed_xgb_v2", "bed_xgb_v1"} {
		if records[i].ModelID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, records[i].ModelID)
		}
	}
}

func TestCatalogSetStatusOnlyTouchesStatus(t *testing.T) {
	catalog, errOpen := OpenCatalog(t.TempDir())
	if errOpen != nil {
		t.Fatalf("open catalog: %v", errOpen)
	}

	original := record("bed_xgb_v1", "bed_xgb", "v1", time.Now().UTC())
	original.Metrics = map[string]float64{"rmse": 5.2}
	if errUpsert := catalog.Upsert(original); errUpsert != nil {
		t.Fatalf("upsert: %v", errUpsert)
	}
	if errSet := catalog.SetStatus("bed_xgb_v1", StatusInactive); errSet != nil {
		t.Fatalf("set status: %v", errSet)
	}

	got, errGet := catalog.Get("bed_xgb_v1")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if got.Status != StatusInactive {
		t.Fatalf("expected inactive, got %q", got.Status)
	}
	if got.Version != original.Version || got.Metrics["rmse"] != 5.2 {
		t.Fatalf("non-status fields changed: %+v", got)
	}

	if errSet := catalog.SetStatus("missing", StatusInactive); !errors.Is(errSet, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", errSet)
	}
}

func TestCatalogReloadPicksUpExternalWrite(t *testing.T) {
	dir := t.TempDir()
	catalog, errOpen := OpenCatalog(dir)
	if errOpen != nil {
		t.Fatalf("open catalog: %v", errOpen)
	}

	// Another process writes the catalog document directly.
	external, errOpenExternal := OpenCatalog(dir)
	if errOpenExternal != nil {
		t.Fatalf("open external catalog: %v", errOpenExternal)
	}
	if errUpsert := external.Upsert(record("bed_xgb_v1", "bed_xgb", "v1", time.Now().UTC())); errUpsert != nil {
		t.Fatalf("external upsert: %v", errUpsert)
	}

	if _, errGet := catalog.Get("bed_xgb_v1"); !errors.Is(errGet, ErrNotFound) {
		t.Fatalf("expected stale view before reload, got %v", errGet)
	}
	if errReload := catalog.Reload(); errReload != nil {
		t.Fatalf("reload: %v", errReload)
	}
	if _, errGet := catalog.Get("bed_xgb_v1"); errGet != nil {
		t.Fatalf("get after reload: %v", errGet)
	}
}

func TestArtifactStoreWriteOnce(t *testing.T) {
	store := NewArtifactStore(t.TempDir())

	location, errSave := store.Save([]byte(`{"weights":[1]}`), "bed_xgb_v1")
	if errSave != nil {
		t.Fatalf("save: %v", errSave)
	}
	if location != "bed_xgb_v1"+artifactSuffix {
		t.Fatalf("unexpected location %q", location)
	}

	if _, errSave := store.Save([]byte(`{}`), "bed_xgb_v1"); errSave == nil {
		t.Fatalf("expected second save for the same id to fail")
	}

	blob, errLoad := store.Load(location)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if string(blob) != `{"weights":[1]}` {
		t.Fatalf("unexpected blob %q", blob)
	}
}

func TestArtifactStoreDeleteIdempotent(t *testing.T) {
	store := NewArtifactStore(t.TempDir())

	location, errSave := store.Save([]byte(`{}`), "bed_xgb_v1")
	if errSave != nil {
		t.Fatalf("save: %v", errSave)
	}
	if errDelete := store.Delete(location); errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}
	if errDelete := store.Delete(location); errDelete != nil {
		t.Fatalf("second delete should be silent, got %v", errDelete)
	}
	if _, errLoad := store.Load(location); !errors.Is(errLoad, ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing, got %v", errLoad)
	}
}
