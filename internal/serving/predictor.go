package serving

import (
	"fmt"
	"sync"
	"time"

	"github.com/wardflow/bedcast/internal/registry"
	log "github.com/sirupsen/logrus"
)

// Prediction is the domain-scoped forecast for a single day.
type Prediction struct {
	Date                  time.Time `json:"prediction_date"`
	PredictedOccupiedBeds float64   `json:"predicted_occupied_beds"`
	OccupancyRate         float64   `json:"occupancy_rate"`
	ConfidenceLower       *float64  `json:"confidence_lower"`
	ConfidenceUpper       *float64  `json:"confidence_upper"`
}

// Predictor is the per-family serving capability: map raw input onto a feature
// vector, run inference, and convert the raw output into a forecast.
type Predictor interface {
	Preprocess(in Input) ([]float64, error)
	Predict(in Input) (Prediction, error)
	Postprocess(raw float64, in Input) Prediction
}

// PredictorFactory builds a predictor for a loaded model and its record.
type PredictorFactory func(record registry.ModelRecord, model Model) Predictor

// predictorFactories maps a model family tag to its predictor. Both in-repo
// families share the occupancy predictor: their serving behavior differs only
// through the feature list and the model object.
var predictorFactories = map[string]PredictorFactory{
	ModelTypeLinear:        newOccupancyPredictor,
	ModelTypeSeasonalNaive: newOccupancyPredictor,
}

// Engine resolves models through the registry, caches them after first load,
// and dispatches inference to the predictor for each family. Cached models are
// immutable, so concurrent read-only prediction calls are safe.
type Engine struct {
	registry *registry.Registry

	mu     sync.RWMutex
	loaded map[string]Predictor
}

// NewEngine returns an engine backed by the given registry.
func NewEngine(reg *registry.Registry) *Engine {
	return &Engine{registry: reg, loaded: map[string]Predictor{}}
}

// Predict produces a single-day forecast with the given model.
func (e *Engine) Predict(modelID string, in Input) (Prediction, error) {
	predictor, errResolve := e.predictor(modelID)
	if errResolve != nil {
		return Prediction{}, errResolve
	}
	return predictor.Predict(in)
}

// Forecast produces one prediction per day ahead, in ascending date order. The
// reference date advances one day per step and each step's prediction is fed
// back into the working history so lag and rolling features track the horizon.
func (e *Engine) Forecast(modelID string, in Input, daysAhead int) ([]Prediction, error) {
	if daysAhead < 1 {
		return nil, fmt.Errorf("%w: days ahead must be at least 1", registry.ErrValidation)
	}
	predictor, errResolve := e.predictor(modelID)
	if errResolve != nil {
		return nil, errResolve
	}

	step := in
	step.History = append([]HistoryPoint(nil), in.History...)
	predictions := make([]Prediction, 0, daysAhead)
	for day := 1; day <= daysAhead; day++ {
		step.Date = in.Date.AddDate(0, 0, day)
		prediction, errPredict := predictor.Predict(step)
		if errPredict != nil {
			return nil, errPredict
		}
		predictions = append(predictions, prediction)
		step.History = append(step.History, HistoryPoint{
			Date:         prediction.Date,
			OccupiedBeds: int(prediction.PredictedOccupiedBeds + 0.5),
			BedCount:     step.BedCount,
		})
	}
	return predictions, nil
}

// Invalidate drops every cached model, forcing reloads from the registry. The
// catalog watcher calls this when another process rewrites the metadata file.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.loaded = map[string]Predictor{}
	e.mu.Unlock()
	log.Debug("serving: model cache invalidated")
}

// predictor returns the cached predictor for modelID, loading and decoding the
// model on first use.
func (e *Engine) predictor(modelID string) (Predictor, error) {
	e.mu.RLock()
	predictor, ok := e.loaded[modelID]
	e.mu.RUnlock()
	if ok {
		return predictor, nil
	}

	record, errInfo := e.registry.GetModelInfo(modelID)
	if errInfo != nil {
		return nil, errInfo
	}
	factory, ok := predictorFactories[record.ModelType]
	if !ok {
		return nil, fmt.Errorf("%w: no predictor for model type %q", registry.ErrValidation, record.ModelType)
	}
	object, errLoad := e.registry.LoadModel(modelID)
	if errLoad != nil {
		return nil, errLoad
	}
	model, ok := object.(Model)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a serving model", registry.ErrArtifactMissing, modelID)
	}

	predictor = factory(record, model)
	e.mu.Lock()
	e.loaded[modelID] = predictor
	e.mu.Unlock()
	log.WithFields(log.Fields{"model_id": modelID, "model_type": record.ModelType}).Info("model loaded")
	return predictor, nil
}

// occupancyPredictor serves bed occupancy forecasts for any feature-vector
// model family.
type occupancyPredictor struct {
	record registry.ModelRecord
	model  Model
}

func newOccupancyPredictor(record registry.ModelRecord, model Model) Predictor {
	return &occupancyPredictor{record: record, model: model}
}

// Preprocess builds the ordered feature vector the model expects.
func (p *occupancyPredictor) Preprocess(in Input) ([]float64, error) {
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: reference date is required", registry.ErrValidation)
	}
	return BuildVector(p.record.Features, in), nil
}

// Predict runs preprocess, model inference, and postprocess.
func (p *occupancyPredictor) Predict(in Input) (Prediction, error) {
	vector, errPre := p.Preprocess(in)
	if errPre != nil {
		return Prediction{}, errPre
	}
	raw, errPredict := p.model.Predict(vector)
	if errPredict != nil {
		return Prediction{}, fmt.Errorf("serving: %s inference: %w", p.record.ModelID, errPredict)
	}

	prediction := p.Postprocess(raw, in)
	if interval, ok := p.model.(IntervalModel); ok {
		if lower, upper, errInterval := interval.PredictInterval(vector); errInterval == nil {
			if lower < 0 {
				lower = 0
			}
			if upper < 0 {
				upper = 0
			}
			prediction.ConfidenceLower = &lower
			prediction.ConfidenceUpper = &upper
		}
	}
	return prediction, nil
}

// Postprocess converts the raw model output into a forecast: the predicted
// value is clamped non-negative and the occupancy rate is clamped to [0, 1].
func (p *occupancyPredictor) Postprocess(raw float64, in Input) Prediction {
	predicted := raw
	if predicted < 0 {
		predicted = 0
	}
	rate := 0.0
	if in.BedCount > 0 {
		rate = clamp(predicted/float64(in.BedCount), 0, 1)
	}
	return Prediction{
		Date:                  in.Date,
		PredictedOccupiedBeds: predicted,
		OccupancyRate:         rate,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
