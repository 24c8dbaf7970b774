package models

import (
	"time"

	"gorm.io/datatypes"
)

// OccupancyRecord is one observed day of bed occupancy for a hospital ward.
type OccupancyRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	HospitalID string `gorm:"type:varchar(64);not null;index:idx_occupancy_scope,priority:1"` // Hospital identifier.
	WardID     string `gorm:"type:varchar(64);not null;index:idx_occupancy_scope,priority:2"` // Ward or department identifier.
	WardType   string `gorm:"type:varchar(32)"`                                               // Ward category, e.g. icu, general.

	BedCount     int       `gorm:"not null"`       // Total beds in the ward.
	OccupiedBeds int       `gorm:"not null"`       // Occupied beds on RecordDate.
	RecordDate   time.Time `gorm:"not null;index"` // Day the observation is for.

	AdmissionRate *float64 `gorm:"type:decimal(6,4)"` // Optional daily admission rate.
	DischargeRate *float64 `gorm:"type:decimal(6,4)"` // Optional daily discharge rate.
	IsWeekend     bool     `gorm:"not null;default:false"`

	// Extra carries optional auxiliary signals (e.g. seasonality_factor)
	// without schema churn.
	Extra datatypes.JSON `gorm:"type:json"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
