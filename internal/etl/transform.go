package etl

import (
	"strconv"
	"time"

	"github.com/wardflow/bedcast/internal/models"
	log "github.com/sirupsen/logrus"
)

// dateLayouts are the record_date formats accepted in source files.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// Transform cleans raw rows into storable occupancy records: missing occupied
// bed counts default to 0, counts exceeding the ward capacity are clamped, and
// the weekend flag is derived from the record date. Rows missing required
// fields are dropped with a warning.
func Transform(raw []RawRecord) []models.OccupancyRecord {
	records := make([]models.OccupancyRecord, 0, len(raw))
	for i, row := range raw {
		if row.HospitalID == "" || row.WardID == "" {
			log.Warnf("etl: row %d: missing hospital or ward id, skipped", i+1)
			continue
		}
		bedCount, errBeds := strconv.Atoi(row.BedCount)
		if errBeds != nil || bedCount < 1 {
			log.Warnf("etl: row %d: invalid bed_count %q, skipped", i+1, row.BedCount)
			continue
		}
		recordDate, ok := parseDate(row.RecordDate)
		if !ok {
			log.Warnf("etl: row %d: invalid record_date %q, skipped", i+1, row.RecordDate)
			continue
		}

		occupied := 0
		if row.OccupiedBeds != "" {
			parsed, errOccupied := strconv.Atoi(row.OccupiedBeds)
			if errOccupied != nil || parsed < 0 {
				log.Warnf("etl: row %d: invalid occupied_beds %q, defaulted to 0", i+1, row.OccupiedBeds)
			} else {
				occupied = parsed
			}
		}
		if occupied > bedCount {
			occupied = bedCount
		}

		record := models.OccupancyRecord{
			HospitalID:   row.HospitalID,
			WardID:       row.WardID,
			WardType:     row.WardType,
			BedCount:     bedCount,
			OccupiedBeds: occupied,
			RecordDate:   recordDate,
			IsWeekend:    recordDate.Weekday() == time.Saturday || recordDate.Weekday() == time.Sunday,
		}
		if rate, ok := parseRate(row.AdmissionRate); ok {
			record.AdmissionRate = &rate
		}
		if rate, ok := parseRate(row.DischargeRate); ok {
			record.DischargeRate = &rate
		}
		records = append(records, record)
	}
	return records
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if parsed, errParse := time.Parse(layout, value); errParse == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseRate(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	rate, errParse := strconv.ParseFloat(value, 64)
	if errParse != nil || rate < 0 || rate > 1 {
		return 0, false
	}
	return rate, true
}
