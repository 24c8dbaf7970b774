package serving

import (
	"encoding/json"
	"fmt"

	"github.com/wardflow/bedcast/internal/registry"
)

// Model is the uniform inference contract every forecasting family satisfies.
// A loaded model is immutable and safe for concurrent use.
type Model interface {
	// Type returns the model family tag stored in the registry.
	Type() string
	// Predict runs inference on an ordered feature vector.
	Predict(features []float64) (float64, error)
}

// IntervalModel is optionally implemented by families that can supply
// confidence bounds around a point prediction.
type IntervalModel interface {
	// PredictInterval returns the lower and upper confidence bounds for the
	// given feature vector.
	PredictInterval(features []float64) (lower, upper float64, err error)
}

// envelope is the serialized artifact shape: the family tag plus the family's
// own payload.
type envelope struct {
	ModelType string          `json:"model_type"`
	Payload   json.RawMessage `json:"payload"`
}

// modelCodecs maps a model family tag to its payload decoder. Families are
// selected by this lookup table, not by type switches scattered around.
var modelCodecs = map[string]func(payload json.RawMessage) (Model, error){
	ModelTypeLinear: func(payload json.RawMessage) (Model, error) {
		var m LinearModel
		if errUnmarshal := json.Unmarshal(payload, &m); errUnmarshal != nil {
			return nil, fmt.Errorf("serving: decode linear payload: %w", errUnmarshal)
		}
		return &m, nil
	},
	ModelTypeSeasonalNaive: func(payload json.RawMessage) (Model, error) {
		var m SeasonalNaiveModel
		if errUnmarshal := json.Unmarshal(payload, &m); errUnmarshal != nil {
			return nil, fmt.Errorf("serving: decode seasonal naive payload: %w", errUnmarshal)
		}
		return &m, nil
	},
}

// EncodeModel serializes a model into the artifact blob format.
func EncodeModel(m Model) ([]byte, error) {
	payload, errMarshal := json.Marshal(m)
	if errMarshal != nil {
		return nil, fmt.Errorf("serving: encode %s payload: %w", m.Type(), errMarshal)
	}
	blob, errMarshal := json.Marshal(envelope{ModelType: m.Type(), Payload: payload})
	if errMarshal != nil {
		return nil, fmt.Errorf("serving: encode %s envelope: %w", m.Type(), errMarshal)
	}
	return blob, nil
}

// DecodeModel deserializes an artifact blob, checking that the envelope tag
// matches the model type recorded in the catalog.
func DecodeModel(modelType string, blob []byte) (Model, error) {
	var env envelope
	if errUnmarshal := json.Unmarshal(blob, &env); errUnmarshal != nil {
		return nil, fmt.Errorf("serving: decode envelope: %w", errUnmarshal)
	}
	if env.ModelType != modelType {
		return nil, fmt.Errorf("serving: artifact type %q does not match record type %q", env.ModelType, modelType)
	}
	decode, ok := modelCodecs[env.ModelType]
	if !ok {
		return nil, fmt.Errorf("serving: unknown model type %q", env.ModelType)
	}
	return decode(env.Payload)
}

// RegistryDecoder adapts DecodeModel to the registry's decoder contract.
func RegistryDecoder() registry.ModelDecoder {
	return func(modelType string, blob []byte) (any, error) {
		return DecodeModel(modelType, blob)
	}
}
