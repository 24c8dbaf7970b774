package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wardflow/bedcast/internal/occupancy"
	"github.com/wardflow/bedcast/internal/registry"
	"github.com/wardflow/bedcast/internal/serving"
	"github.com/wardflow/bedcast/internal/training"
)

// ModelHandler exposes registry management and training endpoints. Registry
// mutations are serialized by a single mutex because the registry itself
// leaves writer coordination to its caller.
type ModelHandler struct {
	registry *registry.Registry
	store    *occupancy.Store
	engine   *serving.Engine

	mu sync.Mutex
}

// NewModelHandler constructs a model handler.
func NewModelHandler(reg *registry.Registry, store *occupancy.Store, engine *serving.Engine) *ModelHandler {
	return &ModelHandler{registry: reg, store: store, engine: engine}
}

// trainRequest captures the payload for training and registering a model.
type trainRequest struct {
	ModelName  string   `json:"model_name"`
	ModelType  string   `json:"model_type"`
	HospitalID string   `json:"hospital_id"`
	WardID     string   `json:"ward_id"`
	Features   []string `json:"features"`
	Target     string   `json:"target_variable"`
	Version    string   `json:"model_version"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
}

// Train fits a model on the stored occupancy history and registers it.
func (h *ModelHandler) Train(c *gin.Context) {
	var body trainRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.ModelName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model_name is required"})
		return
	}
	if strings.TrimSpace(body.ModelType) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model_type is required"})
		return
	}
	if strings.TrimSpace(body.HospitalID) == "" || strings.TrimSpace(body.WardID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hospital_id and ward_id are required"})
		return
	}

	var start, end time.Time
	if body.StartDate != "" {
		parsed, errDate := time.Parse(dateLayout, body.StartDate)
		if errDate != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		start = parsed.UTC()
	}
	if body.EndDate != "" {
		parsed, errDate := time.Parse(dateLayout, body.EndDate)
		if errDate != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		end = parsed.UTC()
	}

	rows, errHistory := h.store.History(c.Request.Context(), strings.TrimSpace(body.HospitalID), strings.TrimSpace(body.WardID), start, end)
	if errHistory != nil {
		respondError(c, errHistory)
		return
	}
	series := historyToSeries(rows)

	h.mu.Lock()
	modelID, errTrain := training.Train(h.registry, series, training.Params{
		Name:      strings.TrimSpace(body.ModelName),
		ModelType: strings.TrimSpace(body.ModelType),
		Features:  body.Features,
		Target:    strings.TrimSpace(body.Target),
		Version:   strings.TrimSpace(body.Version),
	})
	h.mu.Unlock()
	if errTrain != nil {
		respondError(c, errTrain)
		return
	}

	record, errInfo := h.registry.GetModelInfo(modelID)
	if errInfo != nil {
		respondError(c, errInfo)
		return
	}
	c.JSON(http.StatusCreated, formatModelRecord(record))
}

// List returns registered models, optionally filtered by family name.
func (h *ModelHandler) List(c *gin.Context) {
	records := h.registry.ListModels(strings.TrimSpace(c.Query("name")))
	out := make([]gin.H, 0, len(records))
	for _, record := range records {
		out = append(out, formatModelRecord(record))
	}
	c.JSON(http.StatusOK, gin.H{"models": out})
}

// Get fetches one model record by ID.
func (h *ModelHandler) Get(c *gin.Context) {
	record, errGet := h.registry.GetModelInfo(c.Param("id"))
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, formatModelRecord(record))
}

// Best returns the active model with the extremal value of a metric.
func (h *ModelHandler) Best(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	metric := strings.TrimSpace(c.Query("metric"))
	if metric == "" {
		metric = "rmse"
	}

	modelID, errBest := h.registry.GetBest(name, metric, strings.TrimSpace(c.Query("direction")))
	if errBest != nil {
		respondError(c, errBest)
		return
	}
	record, errInfo := h.registry.GetModelInfo(modelID)
	if errInfo != nil {
		respondError(c, errInfo)
		return
	}
	c.JSON(http.StatusOK, formatModelRecord(record))
}

// Active lists the ids of all active models.
func (h *ModelHandler) Active(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"model_ids": h.registry.ActiveModels()})
}

// Deactivate marks a model inactive; the transition cannot be reversed.
func (h *ModelHandler) Deactivate(c *gin.Context) {
	h.mu.Lock()
	errDeactivate := h.registry.Deactivate(c.Param("id"))
	h.mu.Unlock()
	if errDeactivate != nil {
		respondError(c, errDeactivate)
		return
	}
	h.engine.Invalidate()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete purges a model's artifact and metadata.
func (h *ModelHandler) Delete(c *gin.Context) {
	h.mu.Lock()
	errDelete := h.registry.Delete(c.Param("id"))
	h.mu.Unlock()
	if errDelete != nil {
		respondError(c, errDelete)
		return
	}
	h.engine.Invalidate()
	c.Status(http.StatusNoContent)
}

// formatModelRecord converts a model record into a response payload.
func formatModelRecord(r registry.ModelRecord) gin.H {
	return gin.H{
		"model_id":              r.ModelID,
		"model_name":            r.ModelName,
		"model_type":            r.ModelType,
		"model_version":         r.Version,
		"artifact_location":     r.ArtifactLocation,
		"features":              r.Features,
		"target_variable":       r.Target,
		"metrics":               r.Metrics,
		"training_sample_count": r.SampleCount,
		"created_at":            r.CreatedAt,
		"status":                r.Status,
	}
}

// historyToSeries converts stored history rows into the serving series shape.
func historyToSeries(rows []occupancy.HistoryRow) []serving.HistoryPoint {
	series := make([]serving.HistoryPoint, len(rows))
	for i, row := range rows {
		series[i] = serving.HistoryPoint{
			Date:         row.RecordDate,
			OccupiedBeds: row.OccupiedBeds,
			BedCount:     row.BedCount,
		}
	}
	return series
}
