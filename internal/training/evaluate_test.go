package training

import (
	"math"
	"testing"
)

func TestEvaluateMetrics(t *testing.T) {
	actual := []float64{10, 20}
	predicted := []float64{12, 18}

	metrics := Evaluate(actual, predicted)
	if math.Abs(metrics["rmse"]-2) > 1e-9 {
		t.Fatalf("expected rmse 2, got %v", metrics["rmse"])
	}
	if math.Abs(metrics["mae"]-2) > 1e-9 {
		t.Fatalf("expected mae 2, got %v", metrics["mae"])
	}
	if math.Abs(metrics["mape"]-15) > 1e-9 {
		t.Fatalf("expected mape 15, got %v", metrics["mape"])
	}
}

func TestMAPESkipsZeroActuals(t *testing.T) {
	if got := MAPE([]float64{0, 10}, []float64{5, 11}); math.Abs(got-10) > 1e-9 {
		t.Fatalf("expected mape 10 over the non-zero actual, got %v", got)
	}
	if got := MAPE([]float64{0, 0}, []float64{1, 2}); got != 0 {
		t.Fatalf("expected mape 0 when every actual is zero, got %v", got)
	}
}

func TestMetricsEmptyOrMismatchedInput(t *testing.T) {
	if got := RMSE(nil, nil); got != 0 {
		t.Fatalf("expected rmse 0 for empty input, got %v", got)
	}
	if got := MAE([]float64{1}, []float64{1, 2}); got != 0 {
		t.Fatalf("expected mae 0 for mismatched lengths, got %v", got)
	}
}
