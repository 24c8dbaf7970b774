package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wardflow/bedcast/internal/models"
	"github.com/wardflow/bedcast/internal/occupancy"
	"gorm.io/datatypes"
)

// dateLayout is the wire format for occupancy dates.
const dateLayout = "2006-01-02"

// OccupancyHandler manages CRUD endpoints for bed occupancy records.
type OccupancyHandler struct {
	store *occupancy.Store
}

// NewOccupancyHandler constructs an occupancy handler.
func NewOccupancyHandler(store *occupancy.Store) *OccupancyHandler {
	return &OccupancyHandler{store: store}
}

// createOccupancyRequest captures the payload for ingesting a record.
type createOccupancyRequest struct {
	HospitalID    string             `json:"hospital_id"`
	WardID        string             `json:"ward_id"`
	WardType      string             `json:"ward_type"`
	BedCount      int                `json:"bed_count"`
	OccupiedBeds  int                `json:"occupied_beds"`
	RecordDate    string             `json:"record_date"`
	AdmissionRate *float64           `json:"admission_rate"`
	DischargeRate *float64           `json:"discharge_rate"`
	Extra         map[string]float64 `json:"extra"`
}

// Create validates input and inserts a new occupancy record.
func (h *OccupancyHandler) Create(c *gin.Context) {
	var body createOccupancyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if strings.TrimSpace(body.HospitalID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hospital_id is required"})
		return
	}
	if strings.TrimSpace(body.WardID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ward_id is required"})
		return
	}
	if body.BedCount < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bed_count must be at least 1"})
		return
	}
	if body.OccupiedBeds < 0 || body.OccupiedBeds > body.BedCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "occupied_beds must be between 0 and bed_count"})
		return
	}
	recordDate, errDate := time.Parse(dateLayout, strings.TrimSpace(body.RecordDate))
	if errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record_date must be YYYY-MM-DD"})
		return
	}

	record := models.OccupancyRecord{
		HospitalID:    strings.TrimSpace(body.HospitalID),
		WardID:        strings.TrimSpace(body.WardID),
		WardType:      strings.TrimSpace(body.WardType),
		BedCount:      body.BedCount,
		OccupiedBeds:  body.OccupiedBeds,
		RecordDate:    recordDate.UTC(),
		AdmissionRate: body.AdmissionRate,
		DischargeRate: body.DischargeRate,
		IsWeekend:     recordDate.Weekday() == time.Saturday || recordDate.Weekday() == time.Sunday,
	}
	if len(body.Extra) > 0 {
		payload, errMarshal := json.Marshal(body.Extra)
		if errMarshal != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid extra payload"})
			return
		}
		record.Extra = datatypes.JSON(payload)
	}

	if _, errCreate := h.store.Create(c.Request.Context(), &record); errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, h.formatRecord(&record))
}

// List returns occupancy records filtered by query parameters.
func (h *OccupancyHandler) List(c *gin.Context) {
	filter := occupancy.ListFilter{
		HospitalID: strings.TrimSpace(c.Query("hospital_id")),
		WardID:     strings.TrimSpace(c.Query("ward_id")),
		WardType:   strings.TrimSpace(c.Query("ward_type")),
		Search:     strings.TrimSpace(c.Query("q")),
	}
	if startQ := strings.TrimSpace(c.Query("start_date")); startQ != "" {
		start, errDate := time.Parse(dateLayout, startQ)
		if errDate != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		filter.StartDate = start.UTC()
	}
	if endQ := strings.TrimSpace(c.Query("end_date")); endQ != "" {
		end, errDate := time.Parse(dateLayout, endQ)
		if errDate != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		filter.EndDate = end.UTC()
	}
	if limitQ := strings.TrimSpace(c.Query("limit")); limitQ != "" {
		limit, errParse := strconv.Atoi(limitQ)
		if errParse != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}

	rows, errList := h.store.List(c.Request.Context(), filter)
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, h.formatRecord(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}

// Get fetches an occupancy record by ID.
func (h *OccupancyHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	record, errGet := h.store.Get(c.Request.Context(), id)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, h.formatRecord(&record))
}

// updateOccupancyRequest captures optional fields for record updates.
type updateOccupancyRequest struct {
	WardType      *string  `json:"ward_type"`
	BedCount      *int     `json:"bed_count"`
	OccupiedBeds  *int     `json:"occupied_beds"`
	AdmissionRate *float64 `json:"admission_rate"`
	DischargeRate *float64 `json:"discharge_rate"`
}

// Update validates and applies occupancy record field updates.
func (h *OccupancyHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateOccupancyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.BedCount != nil && *body.BedCount < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bed_count must be at least 1"})
		return
	}
	if body.OccupiedBeds != nil && *body.OccupiedBeds < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "occupied_beds must be non-negative"})
		return
	}

	params := occupancy.UpdateParams{
		WardType:      body.WardType,
		BedCount:      body.BedCount,
		OccupiedBeds:  body.OccupiedBeds,
		AdmissionRate: body.AdmissionRate,
		DischargeRate: body.DischargeRate,
	}
	if errUpdate := h.store.Update(c.Request.Context(), id, params); errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes an occupancy record by ID.
func (h *OccupancyHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if errDelete := h.store.Delete(c.Request.Context(), id); errDelete != nil {
		respondError(c, errDelete)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats returns aggregate occupancy statistics.
func (h *OccupancyHandler) Stats(c *gin.Context) {
	stats, errStats := h.store.Statistics(c.Request.Context())
	if errStats != nil {
		respondError(c, errStats)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// formatRecord converts an occupancy record into a response payload.
func (h *OccupancyHandler) formatRecord(r *models.OccupancyRecord) gin.H {
	out := gin.H{
		"id":             r.ID,
		"hospital_id":    r.HospitalID,
		"ward_id":        r.WardID,
		"ward_type":      r.WardType,
		"bed_count":      r.BedCount,
		"occupied_beds":  r.OccupiedBeds,
		"record_date":    r.RecordDate.Format(dateLayout),
		"is_weekend":     r.IsWeekend,
		"admission_rate": r.AdmissionRate,
		"discharge_rate": r.DischargeRate,
		"created_at":     r.CreatedAt,
		"updated_at":     r.UpdatedAt,
	}
	if len(r.Extra) > 0 {
		out["extra"] = json.RawMessage(r.Extra)
	}
	return out
}
