package occupancy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wardflow/bedcast/internal/db"
	"github.com/wardflow/bedcast/internal/models"
	"gorm.io/gorm"
)

// Store persists bed occupancy records via GORM.
type Store struct {
	db *gorm.DB
}

// NewStore constructs an occupancy store.
func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	HospitalID string
	WardID     string
	WardType   string
	Search     string // Case-insensitive match against hospital and ward ids.
	StartDate  time.Time
	EndDate    time.Time
	Limit      int
}

// HistoryRow is one point of the (date, occupied_beds, bed_count) series the
// feature pipeline consumes.
type HistoryRow struct {
	RecordDate   time.Time
	OccupiedBeds int
	BedCount     int
}

// Stats aggregates the stored occupancy data.
type Stats struct {
	TotalRecords     int64      `json:"total_records"`
	Hospitals        int64      `json:"hospitals"`
	Wards            int64      `json:"wards"`
	AvgOccupancyRate float64    `json:"avg_occupancy_rate"`
	LatestRecordDate *time.Time `json:"latest_record_date"`
}

// Create inserts a new occupancy record and returns its id.
func (s *Store) Create(ctx context.Context, record *models.OccupancyRecord) (uint64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("occupancy store: not initialized")
	}
	if errCreate := s.db.WithContext(ctx).Create(record).Error; errCreate != nil {
		return 0, fmt.Errorf("occupancy store: create: %w", errCreate)
	}
	return record.ID, nil
}

// Get fetches a record by id. A missing id yields gorm.ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, id uint64) (models.OccupancyRecord, error) {
	var record models.OccupancyRecord
	if errFind := s.db.WithContext(ctx).First(&record, id).Error; errFind != nil {
		return models.OccupancyRecord{}, fmt.Errorf("occupancy store: get %d: %w", id, errFind)
	}
	return record, nil
}

// List returns records matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]models.OccupancyRecord, error) {
	q := s.db.WithContext(ctx).Model(&models.OccupancyRecord{})
	if filter.HospitalID != "" {
		q = q.Where("hospital_id = ?", filter.HospitalID)
	}
	if filter.WardID != "" {
		q = q.Where("ward_id = ?", filter.WardID)
	}
	if filter.WardType != "" {
		q = q.Where("ward_type = ?", filter.WardType)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := db.NormalizeLikePattern(s.db, "%"+search+"%")
		q = q.Where(
			s.db.Where(db.CaseInsensitiveLikeExpr(s.db, "hospital_id"), pattern).
				Or(db.CaseInsensitiveLikeExpr(s.db, "ward_id"), pattern),
		)
	}
	if !filter.StartDate.IsZero() {
		q = q.Where("record_date >= ?", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		q = q.Where("record_date <= ?", filter.EndDate)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []models.OccupancyRecord
	if errFind := q.Order("record_date DESC, id DESC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("occupancy store: list: %w", errFind)
	}
	return rows, nil
}

// UpdateParams enumerates the fields Update may change.
type UpdateParams struct {
	WardType      *string
	BedCount      *int
	OccupiedBeds  *int
	AdmissionRate *float64
	DischargeRate *float64
	IsWeekend     *bool
}

// Update applies the given field changes to a record. A missing id yields
// gorm.ErrRecordNotFound.
func (s *Store) Update(ctx context.Context, id uint64, params UpdateParams) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if params.WardType != nil {
		updates["ward_type"] = *params.WardType
	}
	if params.BedCount != nil {
		updates["bed_count"] = *params.BedCount
	}
	if params.OccupiedBeds != nil {
		updates["occupied_beds"] = *params.OccupiedBeds
	}
	if params.AdmissionRate != nil {
		updates["admission_rate"] = *params.AdmissionRate
	}
	if params.DischargeRate != nil {
		updates["discharge_rate"] = *params.DischargeRate
	}
	if params.IsWeekend != nil {
		updates["is_weekend"] = *params.IsWeekend
	}

	res := s.db.WithContext(ctx).Model(&models.OccupancyRecord{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("occupancy store: update %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("occupancy store: update %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete removes a record by id. A missing id yields gorm.ErrRecordNotFound.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.OccupancyRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("occupancy store: delete %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("occupancy store: delete %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// History returns the occupancy series for a hospital ward within a date
// range, ordered by date ascending.
func (s *Store) History(ctx context.Context, hospitalID, wardID string, start, end time.Time) ([]HistoryRow, error) {
	q := s.db.WithContext(ctx).Model(&models.OccupancyRecord{}).
		Where("hospital_id = ? AND ward_id = ?", hospitalID, wardID)
	if !start.IsZero() {
		q = q.Where("record_date >= ?", start)
	}
	if !end.IsZero() {
		q = q.Where("record_date <= ?", end)
	}

	var rows []HistoryRow
	if errFind := q.Select("record_date, occupied_beds, bed_count").
		Order("record_date ASC").Scan(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("occupancy store: history %s/%s: %w", hospitalID, wardID, errFind)
	}
	return rows, nil
}

// Statistics aggregates record counts and the mean occupancy rate.
func (s *Store) Statistics(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.WithContext(ctx).Model(&models.OccupancyRecord{}).
		Select(`
			COUNT(*) AS total_records,
			COUNT(DISTINCT hospital_id) AS hospitals,
			COUNT(DISTINCT hospital_id || ':' || ward_id) AS wards,
			COALESCE(AVG(CASE WHEN bed_count > 0 THEN occupied_beds * 1.0 / bed_count END), 0) AS avg_occupancy_rate,
			MAX(record_date) AS latest_record_date
		`)
	if errScan := row.Scan(&stats).Error; errScan != nil {
		return Stats{}, fmt.Errorf("occupancy store: statistics: %w", errScan)
	}
	return stats, nil
}
