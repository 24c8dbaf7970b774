package training

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wardflow/bedcast/internal/registry"
	"github.com/wardflow/bedcast/internal/serving"
	log "github.com/sirupsen/logrus"
)

// defaultHoldout is the fraction of the series reserved for evaluation.
const defaultHoldout = 0.2

// DefaultFeatures returns the feature list used for a model family when the
// caller does not supply one.
func DefaultFeatures(modelType string) []string {
	switch modelType {
	case serving.ModelTypeSeasonalNaive:
		return []string{"day_of_week"}
	default:
		return []string{"year", "month", "day_of_week", "lag_1", "lag_7", "rolling_mean_7", "rolling_std_7"}
	}
}

// Params configures one training run.
type Params struct {
	Name      string   // Model family name to register under.
	ModelType string   // serving.ModelTypeLinear or serving.ModelTypeSeasonalNaive.
	Features  []string // Ordered feature names; defaulted per family when empty.
	Target    string   // Defaults to "occupied_beds".
	Version   string   // Optional explicit version.
	Holdout   float64  // Evaluation fraction; defaults to 0.2.
}

// Train fits a model on the occupancy series, evaluates it on a holdout tail,
// and registers the result, returning the new model id. The series must be
// ordered by date ascending.
func Train(reg *registry.Registry, series []serving.HistoryPoint, p Params) (string, error) {
	if p.Target == "" {
		p.Target = "occupied_beds"
	}
	if len(p.Features) == 0 {
		p.Features = DefaultFeatures(p.ModelType)
	}
	if p.Holdout <= 0 || p.Holdout >= 1 {
		p.Holdout = defaultHoldout
	}

	warmup := maxLookback(p.Features)
	if len(series) <= warmup+1 {
		return "", fmt.Errorf("%w: need more than %d observations, got %d", registry.ErrValidation, warmup+1, len(series))
	}

	vectors, targets := buildDataset(series, p.Features, warmup)
	trainN := len(targets) - int(float64(len(targets))*p.Holdout)
	if trainN < 1 {
		trainN = 1
	}

	var model serving.Model
	switch p.ModelType {
	case serving.ModelTypeLinear:
		fitted, errFit := fitLinear(vectors[:trainN], targets[:trainN])
		if errFit != nil {
			return "", errFit
		}
		model = fitted
	case serving.ModelTypeSeasonalNaive:
		model = fitSeasonalNaive(vectors[:trainN], targets[:trainN])
	default:
		return "", fmt.Errorf("%w: unknown model type %q", registry.ErrValidation, p.ModelType)
	}

	evalVectors, evalTargets := vectors[trainN:], targets[trainN:]
	if len(evalTargets) == 0 {
		evalVectors, evalTargets = vectors[:trainN], targets[:trainN]
	}
	predicted := make([]float64, len(evalTargets))
	for i, vector := range evalVectors {
		value, errPredict := model.Predict(vector)
		if errPredict != nil {
			return "", fmt.Errorf("training: holdout prediction: %w", errPredict)
		}
		predicted[i] = value
	}
	metrics := Evaluate(evalTargets, predicted)

	blob, errEncode := serving.EncodeModel(model)
	if errEncode != nil {
		return "", errEncode
	}
	modelID, errRegister := reg.Register(registry.RegisterParams{
		Name:        p.Name,
		ModelType:   p.ModelType,
		Artifact:    blob,
		Features:    p.Features,
		Target:      p.Target,
		Metrics:     metrics,
		SampleCount: trainN,
		Version:     p.Version,
	})
	if errRegister != nil {
		return "", errRegister
	}

	log.WithFields(log.Fields{
		"model_id": modelID,
		"rmse":     metrics["rmse"],
		"mae":      metrics["mae"],
		"samples":  trainN,
	}).Info("model trained")
	return modelID, nil
}

// buildDataset slides over the series producing one (vector, target) row per
// observation past the warmup, with the history truncated to what was known
// before each observation.
func buildDataset(series []serving.HistoryPoint, features []string, warmup int) ([][]float64, []float64) {
	vectors := make([][]float64, 0, len(series)-warmup)
	targets := make([]float64, 0, len(series)-warmup)
	for i := warmup; i < len(series); i++ {
		in := serving.Input{
			Date:         series[i].Date,
			BedCount:     series[i].BedCount,
			OccupiedBeds: series[i-1].OccupiedBeds,
			History:      series[:i],
		}
		vectors = append(vectors, serving.BuildVector(features, in))
		targets = append(targets, float64(series[i].OccupiedBeds))
	}
	return vectors, targets
}

// maxLookback returns the deepest lag or rolling window the feature list
// references, which bounds the warmup period.
func maxLookback(features []string) int {
	deepest := 1
	for _, name := range features {
		for _, prefix := range []string{"lag_", "rolling_mean_", "rolling_std_"} {
			if suffix, ok := strings.CutPrefix(name, prefix); ok {
				if n, errParse := strconv.Atoi(suffix); errParse == nil && n > deepest {
					deepest = n
				}
			}
		}
	}
	return deepest
}

// fitLinear solves the normal equations for ordinary least squares with a tiny
// ridge term for numerical stability.
func fitLinear(vectors [][]float64, targets []float64) (*serving.LinearModel, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty training set", registry.ErrValidation)
	}
	d := len(vectors[0]) + 1 // bias column

	// Accumulate X'X and X'y with the bias as the last column.
	xtx := make([][]float64, d)
	for i := range xtx {
		xtx[i] = make([]float64, d)
	}
	xty := make([]float64, d)
	row := make([]float64, d)
	for r, vector := range vectors {
		copy(row, vector)
		row[d-1] = 1
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				xtx[i][j] += row[i] * row[j]
			}
			xty[i] += row[i] * targets[r]
		}
	}
	for i := 0; i < d; i++ {
		xtx[i][i] += 1e-8
	}

	solution, errSolve := solveLinearSystem(xtx, xty)
	if errSolve != nil {
		return nil, errSolve
	}
	return &serving.LinearModel{Weights: solution[:d-1], Intercept: solution[d-1]}, nil
}

// solveLinearSystem performs Gaussian elimination with partial pivoting.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("training: singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	solution := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * solution[c]
		}
		solution[r] = sum / a[r][r]
	}
	return solution, nil
}

// fitSeasonalNaive averages the target per seasonal position (the first
// feature) and records the residual spread for confidence bounds.
func fitSeasonalNaive(vectors [][]float64, targets []float64) *serving.SeasonalNaiveModel {
	const period = 7

	sums := make([]float64, period)
	counts := make([]int, period)
	for i, vector := range vectors {
		position := 0
		if len(vector) > 0 {
			position = ((int(vector[0]) % period) + period) % period
		}
		sums[position] += targets[i]
		counts[position]++
	}

	var overall float64
	var observed int
	means := make([]float64, period)
	for i := range means {
		if counts[i] > 0 {
			means[i] = sums[i] / float64(counts[i])
			overall += sums[i]
			observed += counts[i]
		}
	}
	// Positions never observed fall back to the overall mean.
	if observed > 0 {
		fallback := overall / float64(observed)
		for i := range means {
			if counts[i] == 0 {
				means[i] = fallback
			}
		}
	}

	var squares float64
	for i, vector := range vectors {
		position := 0
		if len(vector) > 0 {
			position = ((int(vector[0]) % period) + period) % period
		}
		d := targets[i] - means[position]
		squares += d * d
	}
	std := 0.0
	if len(targets) > 1 {
		std = math.Sqrt(squares / float64(len(targets)-1))
	}
	return &serving.SeasonalNaiveModel{Period: period, Means: means, ResidualStd: std}
}
