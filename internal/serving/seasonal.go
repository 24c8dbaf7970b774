package serving

import "fmt"

// ModelTypeSeasonalNaive tags the seasonal-naive baseline family.
const ModelTypeSeasonalNaive = "seasonal_naive"

// seasonalZScore is the z value for the ~95% confidence band.
const seasonalZScore = 1.96

// SeasonalNaiveModel predicts the historical mean for a seasonal position
// (day-of-week by default). Its single expected feature is the position index.
type SeasonalNaiveModel struct {
	Period      int       `json:"period"`       // Season length, e.g. 7 for weekly.
	Means       []float64 `json:"means"`        // Mean target per position, len == Period.
	ResidualStd float64   `json:"residual_std"` // Std of training residuals.
}

// Type implements Model.
func (m *SeasonalNaiveModel) Type() string { return ModelTypeSeasonalNaive }

// Predict returns the seasonal mean for the position given as the first
// feature.
func (m *SeasonalNaiveModel) Predict(features []float64) (float64, error) {
	position, errPos := m.position(features)
	if errPos != nil {
		return 0, errPos
	}
	return m.Means[position], nil
}

// PredictInterval implements IntervalModel using the training residual spread.
func (m *SeasonalNaiveModel) PredictInterval(features []float64) (float64, float64, error) {
	position, errPos := m.position(features)
	if errPos != nil {
		return 0, 0, errPos
	}
	mean := m.Means[position]
	delta := seasonalZScore * m.ResidualStd
	return mean - delta, mean + delta, nil
}

func (m *SeasonalNaiveModel) position(features []float64) (int, error) {
	if m.Period <= 0 || len(m.Means) != m.Period {
		return 0, fmt.Errorf("serving: seasonal naive model is malformed (period %d, %d means)", m.Period, len(m.Means))
	}
	if len(features) == 0 {
		return 0, fmt.Errorf("serving: seasonal naive model expects at least 1 feature")
	}
	position := int(features[0]) % m.Period
	if position < 0 {
		position += m.Period
	}
	return position, nil
}
