package serving

import "testing"

func TestDecodeModelChecksEnvelopeTag(t *testing.T) {
	blob, errEncode := EncodeModel(&LinearModel{Weights: []float64{1}, Intercept: 2})
	if errEncode != nil {
		t.Fatalf("encode: %v", errEncode)
	}

	model, errDecode := DecodeModel(ModelTypeLinear, blob)
	if errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if model.Type() != ModelTypeLinear {
		t.Fatalf("unexpected type %q", model.Type())
	}

	if _, errDecode := DecodeModel(ModelTypeSeasonalNaive, blob); errDecode == nil {
		t.Fatalf("expected mismatch between envelope tag and record type to fail")
	}
	if _, errDecode := DecodeModel("gradient_boost", []byte(`{"model_type":"gradient_boost","payload":{}}`)); errDecode == nil {
		t.Fatalf("expected unknown family to fail")
	}
}

func TestLinearModelRejectsWrongWidth(t *testing.T) {
	m := &LinearModel{Weights: []float64{1, 2}, Intercept: 0}
	if _, errPredict := m.Predict([]float64{1}); errPredict == nil {
		t.Fatalf("expected width mismatch to fail")
	}
}

func TestSeasonalNaivePositionWrapsNegatives(t *testing.T) {
	m := &SeasonalNaiveModel{Period: 7, Means: []float64{0, 1, 2, 3, 4, 5, 6}}
	value, errPredict := m.Predict([]float64{-1})
	if errPredict != nil {
		t.Fatalf("predict: %v", errPredict)
	}
	if value != 6 {
		t.Fatalf("expected position -1 to wrap to 6, got %v", value)
	}

	malformed := &SeasonalNaiveModel{Period: 7, Means: []float64{1, 2}}
	if _, errPredict := malformed.Predict([]float64{0}); errPredict == nil {
		t.Fatalf("expected malformed model to fail")
	}
}
