package registry

import (
	"fmt"
	"strings"
	"time"
)

// Model lifecycle states. A record starts active, may become inactive, and is
// purged entirely on delete; there is no transition back to active.
const (
	// StatusActive marks a record as eligible for selection and inference.
	StatusActive = "active"
	// StatusInactive marks a record as retained but excluded from selection.
	StatusInactive = "inactive"
)

// ModelRecord describes one registered model version. Apart from Status, every
// field is immutable after registration; a corrected model is a new version.
type ModelRecord struct {
	ModelID          string             `json:"model_id"`          // Unique id, name + "_" + version.
	ModelName        string             `json:"model_name"`        // Logical model family name.
	ModelType        string             `json:"model_type"`        // Family tag used to pick a predictor.
	Version          string             `json:"version"`           // Unique within ModelName.
	ArtifactLocation string             `json:"artifact_location"` // Opaque key into the artifact store.
	Features         []string           `json:"features"`          // Ordered feature names, order-significant.
	Target           string             `json:"target"`            // Name of the predicted quantity.
	Metrics          map[string]float64 `json:"metrics"`           // Evaluation metrics captured at registration.
	SampleCount      int                `json:"training_sample_count"`
	CreatedAt        time.Time          `json:"created_at"`
	Status           string             `json:"status"`
}

// RegisterParams carries the inputs for registering a new model version.
type RegisterParams struct {
	Name        string             // Logical family name.
	ModelType   string             // Family tag, e.g. "linear".
	Artifact    []byte             // Serialized model blob.
	Features    []string           // Ordered feature names the model expects.
	Target      string             // Predicted quantity, e.g. "occupied_beds".
	Metrics     map[string]float64 // Evaluation metrics, e.g. rmse, mae.
	SampleCount int                // Number of training samples.
	Version     string             // Optional; generated when empty.
}

// validate rejects malformed registration input before anything is persisted.
func (p RegisterParams) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: model name is required", ErrValidation)
	}
	if strings.TrimSpace(p.ModelType) == "" {
		return fmt.Errorf("%w: model type is required", ErrValidation)
	}
	if len(p.Artifact) == 0 {
		return fmt.Errorf("%w: artifact is empty", ErrValidation)
	}
	if len(p.Features) == 0 {
		return fmt.Errorf("%w: features list is empty", ErrValidation)
	}
	for _, f := range p.Features {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: features list contains an empty name", ErrValidation)
		}
	}
	if strings.TrimSpace(p.Target) == "" {
		return fmt.Errorf("%w: target variable is required", ErrValidation)
	}
	if p.SampleCount < 0 {
		return fmt.Errorf("%w: training sample count is negative", ErrValidation)
	}
	return nil
}
