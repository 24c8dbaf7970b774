package serving

import "fmt"

// ModelTypeLinear tags the linear regression family.
const ModelTypeLinear = "linear"

// LinearModel is a fitted linear regression over an ordered feature vector.
type LinearModel struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// Type implements Model.
func (m *LinearModel) Type() string { return ModelTypeLinear }

// Predict returns intercept + weights · features.
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("serving: linear model expects %d features, got %d", len(m.Weights), len(features))
	}
	out := m.Intercept
	for i, w := range m.Weights {
		out += w * features[i]
	}
	return out, nil
}
