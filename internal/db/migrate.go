package db

import (
	"fmt"

	"github.com/wardflow/bedcast/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAutoMigrate := conn.AutoMigrate(&models.OccupancyRecord{}); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// ddl defines an index statement to apply; the syntax below is shared by
	// both supported dialects.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_occupancy_scope_date",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_occupancy_scope_date
				ON occupancy_records (hospital_id, ward_id, record_date)
			`,
		},
		{
			name: "idx_occupancy_record_date_desc",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_occupancy_record_date_desc
				ON occupancy_records (record_date DESC, id DESC)
			`,
		},
		{
			name: "idx_occupancy_ward_type",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_occupancy_ward_type
				ON occupancy_records (ward_type)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}
	return nil
}
