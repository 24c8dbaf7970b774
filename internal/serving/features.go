package serving

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// HistoryPoint is one observed value of the target series.
type HistoryPoint struct {
	Date         time.Time
	OccupiedBeds int
	BedCount     int
}

// Input is the raw flat record a prediction is made from. History, when
// supplied, is ordered by date ascending and ends just before Date.
type Input struct {
	HospitalID   string
	WardID       string
	BedCount     int
	OccupiedBeds int
	Date         time.Time
	History      []HistoryPoint
	Extra        map[string]float64
}

// Feature name conventions understood by BuildVector.
const (
	featureYear      = "year"
	featureMonth     = "month"
	featureDayOfWeek = "day_of_week"
	featureDay       = "day"

	lagPrefix         = "lag_"
	rollingMeanPrefix = "rolling_mean_"
	rollingStdPrefix  = "rolling_std_"
)

// BuildVector maps a raw input onto the ordered feature vector a model
// expects. Derivation is deterministic: time features come from the reference
// date, lag and rolling features from the supplied history, direct fields from
// the input itself. Anything the input cannot produce defaults to 0; input
// fields not named in features are ignored.
func BuildVector(features []string, in Input) []float64 {
	vector := make([]float64, len(features))
	for i, name := range features {
		vector[i] = featureValue(name, in)
	}
	return vector
}

func featureValue(name string, in Input) float64 {
	switch name {
	case featureYear:
		return float64(in.Date.Year())
	case featureMonth:
		return float64(int(in.Date.Month()))
	case featureDay:
		return float64(in.Date.Day())
	case featureDayOfWeek:
		return float64(int(in.Date.Weekday()))
	case "bed_count":
		return float64(in.BedCount)
	case "occupied_beds":
		return float64(in.OccupiedBeds)
	}

	if suffix, ok := strings.CutPrefix(name, lagPrefix); ok {
		if lag, errParse := strconv.Atoi(suffix); errParse == nil && lag > 0 {
			return lagValue(in.History, lag)
		}
		return 0
	}
	if suffix, ok := strings.CutPrefix(name, rollingMeanPrefix); ok {
		if window, errParse := strconv.Atoi(suffix); errParse == nil && window > 0 {
			mean, _ := rollingStats(in.History, window)
			return mean
		}
		return 0
	}
	if suffix, ok := strings.CutPrefix(name, rollingStdPrefix); ok {
		if window, errParse := strconv.Atoi(suffix); errParse == nil && window > 0 {
			_, std := rollingStats(in.History, window)
			return std
		}
		return 0
	}

	if value, ok := in.Extra[name]; ok {
		return value
	}
	return 0
}

// lagValue returns the target value lag steps back from the end of the
// history, or 0 when the history does not reach that far.
func lagValue(history []HistoryPoint, lag int) float64 {
	idx := len(history) - lag
	if idx < 0 {
		return 0
	}
	return float64(history[idx].OccupiedBeds)
}

// rollingStats computes the mean and sample standard deviation over the last
// window points. Fewer than window points uses the available subset; zero
// points yields 0 for both, and a single point yields std 0.
func rollingStats(history []HistoryPoint, window int) (mean, std float64) {
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	tail := history[start:]
	n := len(tail)
	if n == 0 {
		return 0, 0
	}

	var sum float64
	for _, point := range tail {
		sum += float64(point.OccupiedBeds)
	}
	mean = sum / float64(n)

	if n < 2 {
		return mean, 0
	}
	var squares float64
	for _, point := range tail {
		d := float64(point.OccupiedBeds) - mean
		squares += d * d
	}
	return mean, math.Sqrt(squares / float64(n-1))
}
