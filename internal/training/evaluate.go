package training

import "math"

// Evaluate computes the standard regression metrics captured at registration
// time: rmse, mae, and mape (zero actuals are skipped for mape).
func Evaluate(actual, predicted []float64) map[string]float64 {
	return map[string]float64{
		"rmse": RMSE(actual, predicted),
		"mae":  MAE(actual, predicted),
		"mape": MAPE(actual, predicted),
	}
}

// RMSE returns the root mean squared error.
func RMSE(actual, predicted []float64) float64 {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return 0
	}
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// MAE returns the mean absolute error.
func MAE(actual, predicted []float64) float64 {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return 0
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(n)
}

// MAPE returns the mean absolute percentage error over non-zero actuals.
func MAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) {
		return 0
	}
	var sum float64
	var n int
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) * 100
}
