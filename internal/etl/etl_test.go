package etl

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wardflow/bedcast/internal/db"
	"github.com/wardflow/bedcast/internal/occupancy"
)

func TestExtractMapsColumnsByHeader(t *testing.T) {
	// Columns intentionally shuffled; unknown ones ignored.
	input := strings.Join([]string{
		"record_date,notes,ward_id,hospital_id,bed_count,occupied_beds",
		"2026-03-04,full,icu-1,h1,50,42",
		"2026-03-05,,icu-1,h1,50,",
	}, "\n")

	records, errExtract := extract(csv.NewReader(strings.NewReader(input)))
	if errExtract != nil {
		t.Fatalf("extract: %v", errExtract)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(records))
	}
	if records[0].HospitalID != "h1" || records[0].BedCount != "50" || records[0].OccupiedBeds != "42" {
		t.Fatalf("column mapping failed: %+v", records[0])
	}
	if records[1].OccupiedBeds != "" {
		t.Fatalf("expected empty occupied_beds to stay empty, got %q", records[1].OccupiedBeds)
	}
}

func TestExtractRequiresCoreColumns(t *testing.T) {
	input := "hospital_id,ward_id,bed_count\nh1,icu-1,50"
	if _, errExtract := extract(csv.NewReader(strings.NewReader(input))); errExtract == nil {
		t.Fatalf("expected missing record_date column to fail")
	}
}

func TestTransformCleansRows(t *testing.T) {
	raw := []RawRecord{
		{HospitalID: "h1", WardID: "icu-1", BedCount: "50", OccupiedBeds: "42", RecordDate: "2026-03-07", AdmissionRate: "0.3"},
		{HospitalID: "h1", WardID: "icu-1", BedCount: "50", OccupiedBeds: "60", RecordDate: "2026-03-04"}, // over capacity
		{HospitalID: "h1", WardID: "icu-1", BedCount: "50", RecordDate: "2026-03-05"},                     // missing occupied
		{HospitalID: "", WardID: "icu-1", BedCount: "50", OccupiedBeds: "1", RecordDate: "2026-03-04"},    // no hospital
		{HospitalID: "h1", WardID: "icu-1", BedCount: "0", OccupiedBeds: "1", RecordDate: "2026-03-04"},   // no beds
		{HospitalID: "h1", WardID: "icu-1", BedCount: "50", OccupiedBeds: "1", RecordDate: "not a date"},
	}

	records := Transform(raw)
	if len(records) != 3 {
		t.Fatalf("expected 3 surviving rows, got %d", len(records))
	}

	if records[0].AdmissionRate == nil || *records[0].AdmissionRate != 0.3 {
		t.Fatalf("admission rate not parsed: %+v", records[0])
	}
	if !records[0].IsWeekend {
		t.Fatalf("2026-03-07 is a Saturday, weekend flag missing")
	}
	if records[1].OccupiedBeds != 50 {
		t.Fatalf("expected over-capacity row clamped to 50, got %d", records[1].OccupiedBeds)
	}
	if records[1].IsWeekend {
		t.Fatalf("2026-03-04 is a Wednesday, weekend flag wrong")
	}
	if records[2].OccupiedBeds != 0 {
		t.Fatalf("expected missing occupied_beds to default to 0, got %d", records[2].OccupiedBeds)
	}
}

func TestTransformRejectsOutOfRangeRates(t *testing.T) {
	raw := []RawRecord{
		{HospitalID: "h1", WardID: "icu-1", BedCount: "50", OccupiedBeds: "1", RecordDate: "2026-03-04", AdmissionRate: "1.5", DischargeRate: "-0.1"},
	}
	records := Transform(raw)
	if len(records) != 1 {
		t.Fatalf("expected row to survive, got %d", len(records))
	}
	if records[0].AdmissionRate != nil || records[0].DischargeRate != nil {
		t.Fatalf("out-of-range rates should be dropped, got %+v", records[0])
	}
}

func TestRunLoadsCSVIntoStore(t *testing.T) {
	conn, errOpen := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	store := occupancy.NewStore(conn)

	csvPath := filepath.Join(t.TempDir(), "occupancy.csv")
	content := strings.Join([]string{
		"hospital_id,ward_id,ward_type,bed_count,occupied_beds,record_date",
		"h1,icu-1,icu,50,42,2026-03-04",
		"h1,icu-1,icu,50,44,2026-03-05",
		",icu-1,icu,50,1,2026-03-04", // skipped
	}, "\n")
	if errWrite := os.WriteFile(csvPath, []byte(content), 0o644); errWrite != nil {
		t.Fatalf("write csv: %v", errWrite)
	}

	if errRun := Run(context.Background(), store, csvPath); errRun != nil {
		t.Fatalf("run: %v", errRun)
	}

	rows, errHistory := store.History(context.Background(), "h1", "icu-1", time.Time{}, time.Time{})
	if errHistory != nil {
		t.Fatalf("history: %v", errHistory)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 loaded rows, got %d", len(rows))
	}
	if rows[0].OccupiedBeds != 42 || rows[1].OccupiedBeds != 44 {
		t.Fatalf("unexpected history %v", rows)
	}
}
