package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wardflow/bedcast/internal/registry"
	"gorm.io/gorm"
)

// respondError translates a typed failure into a transport response, keeping
// the error kind visible so callers can tell corruption from plain absence.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation_error"})
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": "not_found"})
	case errors.Is(err, registry.ErrNoModelFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": "no_model_found"})
	case errors.Is(err, registry.ErrDuplicateVersion):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "duplicate_version"})
	case errors.Is(err, registry.ErrArtifactMissing):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "artifact_missing"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "kind": "not_found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "internal"})
	}
}
