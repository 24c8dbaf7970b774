package serving

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/wardflow/bedcast/internal/registry"
)

func registerLinear(t *testing.T, reg *registry.Registry, features []string, weights []float64, intercept float64) string {
	t.Helper()
	blob, errEncode := EncodeModel(&LinearModel{Weights: weights, Intercept: intercept})
	if errEncode != nil {
		t.Fatalf("encode model: %v", errEncode)
	}
	modelID, errRegister := reg.Register(registry.RegisterParams{
		Name:      "bed_linear",
		ModelType: ModelTypeLinear,
		Artifact:  blob,
		Features:  features,
		Target:    "occupied_beds",
		Metrics:   map[string]float64{"rmse": 1.0},
	})
	if errRegister != nil {
		t.Fatalf("register model: %v", errRegister)
	}
	return modelID
}

func TestEnginePredictSingleDay(t *testing.T) {
	reg, errOpen := registry.Open(t.TempDir(), RegistryDecoder())
	if errOpen != nil {
		t.Fatalf("open registry: %v", errOpen)
	}
	// predicted = 40 + 0.5 * occupied_beds
	modelID := registerLinear(t, reg, []string{"occupied_beds"}, []float64{0.5}, 40)
	engine := NewEngine(reg)

	in := Input{
		BedCount:     100,
		OccupiedBeds: 20,
		Date:         time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	prediction, errPredict := engine.Predict(modelID, in)
	if errPredict != nil {
		t.Fatalf("predict: %v", errPredict)
	}
	if prediction.PredictedOccupiedBeds != 50 {
		t.Fatalf("expected 50 predicted beds, got %v", prediction.PredictedOccupiedBeds)
	}
	if prediction.OccupancyRate != 0.5 {
		t.Fatalf("expected rate 0.5, got %v", prediction.OccupancyRate)
	}
	if prediction.ConfidenceLower != nil || prediction.ConfidenceUpper != nil {
		t.Fatalf("linear family should not produce confidence bounds")
	}
}

func TestPostprocessClampsRateAndNegatives(t *testing.T) {
	p := &occupancyPredictor{}
	in := Input{BedCount: 50, Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)}

	over := p.Postprocess(60, in)
	if over.PredictedOccupiedBeds != 60 {
		t.Fatalf("predicted value should not be capped at capacity, got %v", over.PredictedOccupiedBeds)
	}
	if over.OccupancyRate != 1.0 {
		t.Fatalf("expected rate clamped to 1.0, got %v", over.OccupancyRate)
	}

	negative := p.Postprocess(-4, in)
	if negative.PredictedOccupiedBeds != 0 || negative.OccupancyRate != 0 {
		t.Fatalf("negative raw output should clamp to zero, got %+v", negative)
	}

	zeroCapacity := p.Postprocess(10, Input{Date: in.Date})
	if zeroCapacity.OccupancyRate != 0 {
		t.Fatalf("zero capacity should yield rate 0, got %v", zeroCapacity.OccupancyRate)
	}
}

func TestEngineForecastAdvancesDatesAndFeedsBack(t *testing.T) {
	reg, errOpen := registry.Open(t.TempDir(), RegistryDecoder())
	if errOpen != nil {
		t.Fatalf("open registry: %v", errOpen)
	}
	// predicted = lag_1 + 1: each day is yesterday plus one bed.
	modelID := registerLinear(t, reg, []string{"lag_1"}, []float64{1}, 1)
	engine := NewEngine(reg)

	base := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	in := Input{
		BedCount: 100,
		Date:     base,
		History:  []HistoryPoint{{Date: base.AddDate(0, 0, -1), OccupiedBeds: 10, BedCount: 100}},
	}
	predictions, errForecast := engine.Forecast(modelID, in, 3)
	if errForecast != nil {
		t.Fatalf("forecast: %v", errForecast)
	}
	if len(predictions) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(predictions))
	}
	for i, want := range []float64{11, 12, 13} {
		if predictions[i].PredictedOccupiedBeds != want {
			t.Fatalf("day %d: expected %v, got %v", i+1, want, predictions[i].PredictedOccupiedBeds)
		}
		wantDate := base.AddDate(0, 0, i+1)
		if !predictions[i].Date.Equal(wantDate) {
			t.Fatalf("day %d: expected date %s, got %s", i+1, wantDate, predictions[i].Date)
		}
	}

	// The caller's history must stay untouched.
	if len(in.History) != 1 {
		t.Fatalf("input history mutated, length %d", len(in.History))
	}

	if _, errForecast := engine.Forecast(modelID, in, 0); !errors.Is(errForecast, registry.ErrValidation) {
		t.Fatalf("expected ErrValidation for zero horizon, got %v", errForecast)
	}
}

func TestEngineForecastSeasonalIntervals(t *testing.T) {
	reg, errOpen := registry.Open(t.TempDir(), RegistryDecoder())
	if errOpen != nil {
		t.Fatalf("open registry: %v", errOpen)
	}
	seasonal := &SeasonalNaiveModel{
		Period:      7,
		Means:       []float64{30, 31, 32, 33, 34, 35, 36},
		ResidualStd: 2,
	}
	blob, errEncode := EncodeModel(seasonal)
	if errEncode != nil {
		t.Fatalf("encode: %v", errEncode)
	}
	modelID, errRegister := reg.Register(registry.RegisterParams{
		Name:      "bed_seasonal",
		ModelType: ModelTypeSeasonalNaive,
		Artifact:  blob,
		Features:  []string{"day_of_week"},
		Target:    "occupied_beds",
		Metrics:   map[string]float64{"rmse": 2.5},
	})
	if errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}

	engine := NewEngine(reg)
	base := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC) // Wednesday
	predictions, errForecast := engine.Forecast(modelID, Input{BedCount: 50, Date: base}, 2)
	if errForecast != nil {
		t.Fatalf("forecast: %v", errForecast)
	}

	// Day 1 is Thursday (weekday 4), day 2 Friday (weekday 5).
	if predictions[0].PredictedOccupiedBeds != 34 || predictions[1].PredictedOccupiedBeds != 35 {
		t.Fatalf("unexpected seasonal means %v, %v", predictions[0].PredictedOccupiedBeds, predictions[1].PredictedOccupiedBeds)
	}
	if predictions[0].ConfidenceLower == nil || predictions[0].ConfidenceUpper == nil {
		t.Fatalf("seasonal family should produce confidence bounds")
	}
	if math.Abs(*predictions[0].ConfidenceLower-(34-1.96*2)) > 1e-9 {
		t.Fatalf("unexpected lower bound %v", *predictions[0].ConfidenceLower)
	}
	if math.Abs(*predictions[0].ConfidenceUpper-(34+1.96*2)) > 1e-9 {
		t.Fatalf("unexpected upper bound %v", *predictions[0].ConfidenceUpper)
	}
}

func TestEngineCacheInvalidate(t *testing.T) {
	dir := t.TempDir()
	reg, errOpen := registry.Open(dir, RegistryDecoder())
	if errOpen != nil {
		t.Fatalf("open registry: %v", errOpen)
	}
	modelID := registerLinear(t, reg, []string{"occupied_beds"}, []float64{1}, 0)
	engine := NewEngine(reg)

	in := Input{BedCount: 100, OccupiedBeds: 20, Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)}
	if _, errPredict := engine.Predict(modelID, in); errPredict != nil {
		t.Fatalf("first predict: %v", errPredict)
	}

	// The cached predictor keeps serving after the backing record goes away.
	if errDelete := reg.Delete(modelID); errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}
	if _, errPredict := engine.Predict(modelID, in); errPredict != nil {
		t.Fatalf("cached predict: %v", errPredict)
	}

	engine.Invalidate()
	if _, errPredict := engine.Predict(modelID, in); !errors.Is(errPredict, registry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after invalidate, got %v", errPredict)
	}
}

func TestEngineRejectsUnknownModelType(t *testing.T) {
	reg, errOpen := registry.Open(t.TempDir(), RegistryDecoder())
	if errOpen != nil {
		t.Fatalf("open registry: %v", errOpen)
	}
	modelID, errRegister := reg.Register(registry.RegisterParams{
		Name:      "bed_mystery",
		ModelType: "gradient_boost",
		Artifact:  []byte(`{"model_type":"gradient_boost","payload":{}}`),
		Features:  []string{"year"},
		Target:    "occupied_beds",
	})
	if errRegister != nil {
		t.Fatalf("register: %v", errRegister)
	}

	engine := NewEngine(reg)
	in := Input{BedCount: 10, Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)}
	if _, errPredict := engine.Predict(modelID, in); !errors.Is(errPredict, registry.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown family, got %v", errPredict)
	}
}
