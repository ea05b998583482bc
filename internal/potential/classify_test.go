package potential

import (
	"encoding/json"
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		remarks map[string]any
		want    Bucket
	}{
		{"nil remarks", nil, Unclassified},
		{"empty remarks", map[string]any{}, Unclassified},
		{"numeric beats text", map[string]any{"score": 80.0, "overall": "poor"}, Best},
		{"boundary 75", map[string]any{"score": 75.0}, Best},
		{"just below 75", map[string]any{"score": 74.9}, Mediocre},
		{"boundary 40", map[string]any{"score": 40}, Mediocre},
		{"just below 40", map[string]any{"score": 39.9}, Low},
		{"int64 from bson", map[string]any{"potential_score": int64(90)}, Best},
		{"int32 from bson", map[string]any{"overall_score": int32(10)}, Low},
		{"numeric string", map[string]any{"potentialScore": "55"}, Mediocre},
		{"json number", map[string]any{"score": json.Number("76")}, Best},
		{"key priority", map[string]any{"funding_readiness_score": 10.0, "overall_confidence": 90.0}, Best},
		{"unparseable skipped", map[string]any{"score": "n/a", "value_and_model_score": 20.0}, Low},
		{"blank string is not zero", map[string]any{"score": "  ", "potential": "excellent idea"}, Best},
		{"NaN ignored", map[string]any{"score": math.NaN()}, Unclassified},
		{"text best", map[string]any{"potential": "Very PROMISING"}, Best},
		{"text mediocre", map[string]any{"potential_rating": "average"}, Mediocre},
		{"text low", map[string]any{"potentialRemarks": "weak market"}, Low},
		{"whole words only", map[string]any{"overall": "goodness lowered"}, Unclassified},
		{"first non-empty text field", map[string]any{"potential": "", "overall": "bad"}, Low},
		{"remark text beats feedback", map[string]any{"overall": "moderate", "feedback": "excellent"}, Mediocre},
		{"feedback fallback", map[string]any{"feedback": "team is strong"}, Best},
		{"comments fallback", map[string]any{"comments": "looks ok to me"}, Mediocre},
		{"remark text without keyword falls through to feedback", map[string]any{"potential": "unsure", "feedback": "good"}, Best},
		{"zero remark is absent", map[string]any{"potential": 0, "overall": "good"}, Best},
		{"false remark is absent", map[string]any{"potential_rating": false, "overall": "weak"}, Low},
		{"nonzero number is remark text", map[string]any{"potential": 12.0, "overall": "good"}, Unclassified},
		{"inf string is not a number", map[string]any{"score": "inf", "overall": "average"}, Mediocre},
		{"infinity string is not a number", map[string]any{"score": "INFINITY"}, Unclassified},
		{"spelled out Infinity is a number", map[string]any{"score": "-Infinity"}, Low},
		{"no signal", map[string]any{"note": "excellent"}, Unclassified},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.remarks); got != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", tc.remarks, got, tc.want)
			}
		})
	}
}

func TestTextRuleUsesFirstNonEmptyField(t *testing.T) {
	rule := TextRule("remark-text", RemarkTextKeys)
	if _, ok := rule.Match(map[string]any{"potential": "unsure", "overall": "excellent"}); ok {
		t.Fatalf("expected no match: only the first non-empty field is scanned")
	}
	if b, ok := rule.Match(map[string]any{"potential_rating": "high"}); !ok || b != Best {
		t.Fatalf("expected best, got %s %v", b, ok)
	}
}

func TestNumericRuleIgnoresNonNumbers(t *testing.T) {
	rule := NumericRule(NumericKeys)
	if _, ok := rule.Match(map[string]any{"score": true, "potential_score": []any{1}}); ok {
		t.Fatalf("non-numeric values must not match")
	}
}

func TestForScore(t *testing.T) {
	if ForScore(100) != Best || ForScore(40) != Mediocre || ForScore(-1) != Low {
		t.Fatalf("unexpected thresholds")
	}
}

func TestClassifyIsTotal(t *testing.T) {
	inputs := []map[string]any{
		{"score": nil},
		{"potential": 12},
		{"feedback": map[string]any{"nested": "good"}},
		{"comments": []any{"bad"}},
	}
	for _, in := range inputs {
		got := Classify(in)
		valid := false
		for _, b := range Buckets {
			if got == b {
				valid = true
			}
		}
		if !valid {
			t.Fatalf("Classify(%v) returned unknown bucket %q", in, got)
		}
	}
}
