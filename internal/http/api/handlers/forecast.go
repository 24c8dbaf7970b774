package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wardflow/bedcast/internal/occupancy"
	"github.com/wardflow/bedcast/internal/registry"
	"github.com/wardflow/bedcast/internal/serving"
)

// ForecastHandler serves multi-day occupancy forecasts.
type ForecastHandler struct {
	registry *registry.Registry
	store    *occupancy.Store
	engine   *serving.Engine
}

// NewForecastHandler constructs a forecast handler.
func NewForecastHandler(reg *registry.Registry, store *occupancy.Store, engine *serving.Engine) *ForecastHandler {
	return &ForecastHandler{registry: reg, store: store, engine: engine}
}

// forecastRequest captures the payload for a forecast call. When model_id is
// empty the handler selects the best active model of the requested family.
type forecastRequest struct {
	HospitalID   string             `json:"hospital_id"`
	WardID       string             `json:"ward_id"`
	BedCount     int                `json:"bed_count"`
	OccupiedBeds int                `json:"current_occupied_beds"`
	RecordDate   string             `json:"record_date"`
	DaysAhead    int                `json:"days_ahead"`
	ModelID      string             `json:"model_id"`
	ModelName    string             `json:"model_name"`
	Metric       string             `json:"metric"`
	Extra        map[string]float64 `json:"extra"`
}

// maxDaysAhead bounds the forecast horizon a single request may ask for.
const maxDaysAhead = 90

// Forecast resolves a model, loads the ward's stored history, and returns one
// prediction per requested day ahead.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	var body forecastRequest
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
		c.JSON(http.StatusBadRequest, gin.H{"error": "current_occupied_beds must be between 0 and bed_count"})
		return
	}
	if body.DaysAhead < 1 || body.DaysAhead > maxDaysAhead {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days_ahead must be between 1 and 90"})
		return
	}
	recordDate, errDate := time.Parse(dateLayout, strings.TrimSpace(body.RecordDate))
	if errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record_date must be YYYY-MM-DD"})
		return
	}

	modelID := strings.TrimSpace(body.ModelID)
	if modelID == "" {
		name := strings.TrimSpace(body.ModelName)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "model_id or model_name is required"})
			return
		}
		metric := strings.TrimSpace(body.Metric)
		if metric == "" {
			metric = "rmse"
		}
		best, errBest := h.registry.GetBest(name, metric, registry.DirectionMin)
		if errBest != nil {
			respondError(c, errBest)
			return
		}
		modelID = best
	}

	rows, errHistory := h.store.History(c.Request.Context(), strings.TrimSpace(body.HospitalID), strings.TrimSpace(body.WardID), time.Time{}, recordDate.UTC())
	if errHistory != nil {
		respondError(c, errHistory)
		return
	}

	in := serving.Input{
		HospitalID:   strings.TrimSpace(body.HospitalID),
		WardID:       strings.TrimSpace(body.WardID),
		BedCount:     body.BedCount,
		OccupiedBeds: body.OccupiedBeds,
		Date:         recordDate.UTC(),
		History:      historyToSeries(rows),
		Extra:        body.Extra,
	}
	predictions, errForecast := h.engine.Forecast(modelID, in, body.DaysAhead)
	if errForecast != nil {
		respondError(c, errForecast)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id":  uuid.NewString(),
		"model_id":    modelID,
		"hospital_id": in.HospitalID,
		"ward_id":     in.WardID,
		"base_date":   recordDate.Format(dateLayout),
		"days_ahead":  body.DaysAhead,
		"predictions": predictions,
		"created_at":  time.Now().UTC(),
	})
}
