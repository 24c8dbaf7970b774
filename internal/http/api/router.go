package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wardflow/bedcast/internal/http/api/handlers"
	"github.com/wardflow/bedcast/internal/occupancy"
	"github.com/wardflow/bedcast/internal/registry"
	"github.com/wardflow/bedcast/internal/serving"
)

// RegisterRoutes registers all HTTP routes and handlers.
func RegisterRoutes(r *gin.Engine, reg *registry.Registry, store *occupancy.Store, engine *serving.Engine) {
	if r == nil || reg == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler()
	r.GET("/healthz", healthHandler.Healthz)

	v1 := r.Group("/v1")

	occupancyHandler := handlers.NewOccupancyHandler(store)
	v1.POST("/occupancy", occupancyHandler.Create)
	v1.GET("/occupancy", occupancyHandler.List)
	v1.GET("/occupancy/stats", occupancyHandler.Stats)
	v1.GET("/occupancy/:id", occupancyHandler.Get)
	v1.PUT("/occupancy/:id", occupancyHandler.Update)
	v1.DELETE("/occupancy/:id", occupancyHandler.Delete)

	modelHandler := handlers.NewModelHandler(reg, store, engine)
	v1.POST("/models/train", modelHandler.Train)
	v1.GET("/models", modelHandler.List)
	v1.GET("/models/best", modelHandler.Best)
	v1.GET("/models/active", modelHandler.Active)
	v1.GET("/models/:id", modelHandler.Get)
	v1.POST("/models/:id/deactivate", modelHandler.Deactivate)
	v1.DELETE("/models/:id", modelHandler.Delete)

	forecastHandler := handlers.NewForecastHandler(reg, store, engine)
	v1.POST("/forecast", forecastHandler.Forecast)
}
