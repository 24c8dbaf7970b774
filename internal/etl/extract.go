package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// RawRecord is one unparsed CSV row keyed by its raw column values.
type RawRecord struct {
	HospitalID    string
	WardID        string
	WardType      string
	BedCount      string
	OccupiedBeds  string
	RecordDate    string
	AdmissionRate string
	DischargeRate string
}

// ExtractCSV reads occupancy rows from a headered CSV file. Column order is
// free; unknown columns are ignored.
func ExtractCSV(path string) ([]RawRecord, error) {
	f, errOpen := os.Open(path)
	if errOpen != nil {
		return nil, fmt.Errorf("etl: open %s: %w", path, errOpen)
	}
	defer f.Close()
	return extract(csv.NewReader(f))
}

func extract(reader *csv.Reader) ([]RawRecord, error) {
	reader.TrimLeadingSpace = true

	header, errHeader := reader.Read()
	if errHeader != nil {
		return nil, fmt.Errorf("etl: read header: %w", errHeader)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"hospital_id", "ward_id", "bed_count", "record_date"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("etl: missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []RawRecord
	for {
		row, errRead := reader.Read()
		if errRead == io.EOF {
			break
		}
		if errRead != nil {
			return nil, fmt.Errorf("etl: read row: %w", errRead)
		}
		records = append(records, RawRecord{
			HospitalID:    field(row, "hospital_id"),
			WardID:        field(row, "ward_id"),
			WardType:      field(row, "ward_type"),
			BedCount:      field(row, "bed_count"),
			OccupiedBeds:  field(row, "occupied_beds"),
			RecordDate:    field(row, "record_date"),
			AdmissionRate: field(row, "admission_rate"),
			DischargeRate: field(row, "discharge_rate"),
		})
	}
	return records, nil
}
