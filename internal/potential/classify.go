// Package potential buckets projects by the potential signals mentors leave in their remarks.
package potential

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Bucket is a coarse potential classification.
type Bucket string

const (
	Best         Bucket = "best"
	Mediocre     Bucket = "mediocre"
	Low          Bucket = "low"
	Unclassified Bucket = "unclassified"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{Best, Mediocre, Low, Unclassified}

// Score thresholds, inclusive lower bounds.
const (
	BestThreshold     = 75.0
	MediocreThreshold = 40.0
)

var (
	// NumericKeys are checked in order; the first parseable number wins.
	NumericKeys = []string{
		"score", "potential_score", "potentialScore", "overall_score",
		"overall_confidence", "value_and_model_score", "funding_readiness_score",
	}
	// RemarkTextKeys hold the mentor's own potential wording.
	RemarkTextKeys = []string{"potential", "potential_rating", "potentialRemarks", "overall"}
	// FeedbackTextKeys hold free-form notes scanned last.
	FeedbackTextKeys = []string{"feedback", "comments"}
)

var keywordSets = []struct {
	bucket  Bucket
	pattern *regexp.Regexp
}{
	{Best, regexp.MustCompile(`\b(high|best|excellent|strong|promising|good)\b`)},
	{Mediocre, regexp.MustCompile(`\b(medium|mediocre|average|ok|moderate)\b`)},
	{Low, regexp.MustCompile(`\b(low|poor|weak|bad)\b`)},
}

// Rule inspects remarks and returns a bucket when it applies.
type Rule struct {
	Name  string
	Match func(remarks map[string]any) (Bucket, bool)
}

// DefaultRules is the priority order used by Classify.
var DefaultRules = []Rule{
	NumericRule(NumericKeys),
	TextRule("remark-text", RemarkTextKeys),
	TextRule("feedback-text", FeedbackTextKeys),
}

// Classify returns the bucket of the first matching rule in DefaultRules, or Unclassified.
func Classify(remarks map[string]any) Bucket {
	return ClassifyWith(DefaultRules, remarks)
}

// ClassifyWith evaluates rules in order. A nil map classifies as Unclassified.
func ClassifyWith(rules []Rule, remarks map[string]any) Bucket {
	if remarks == nil {
		return Unclassified
	}
	for _, rule := range rules {
		if bucket, ok := rule.Match(remarks); ok {
			return bucket
		}
	}
	return Unclassified
}

// ForScore maps a numeric score to a bucket.
func ForScore(score float64) Bucket {
	switch {
	case score >= BestThreshold:
		return Best
	case score >= MediocreThreshold:
		return Mediocre
	default:
		return Low
	}
}

// ForText returns the bucket of the first keyword set with a whole-word,
// case-insensitive match in text.
func ForText(text string) (Bucket, bool) {
	text = strings.ToLower(text)
	for _, set := range keywordSets {
		if set.pattern.MatchString(text) {
			return set.bucket, true
		}
	}
	return "", false
}

// NumericRule matches on the first key in keys whose value parses as a number.
func NumericRule(keys []string) Rule {
	return Rule{
		Name: "numeric",
		Match: func(remarks map[string]any) (Bucket, bool) {
			for _, key := range keys {
				if n, ok := toNumber(remarks[key]); ok {
					return ForScore(n), true
				}
			}
			return "", false
		},
	}
}

// TextRule scans the first non-empty field among keys for keywords.
func TextRule(name string, keys []string) Rule {
	return Rule{
		Name: name,
		Match: func(remarks map[string]any) (Bucket, bool) {
			for _, key := range keys {
				if text := toText(remarks[key]); text != "" {
					return ForText(text)
				}
			}
			return "", false
		},
	}
}

func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		// ParseFloat also takes "inf" and "infinity" in any case; only the
		// spelled-out "Infinity" counts as a number.
		if math.IsInf(parsed, 0) && strings.TrimLeft(s, "+-") != "Infinity" {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// toText renders a remark field for keyword scanning. Empty strings, false,
// zero and NaN count as absent so the scan moves on to the next field.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
	default:
		if n, ok := toNumber(v); ok && n == 0 {
			return ""
		}
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			return ""
		}
	}
	return fmt.Sprint(v)
}
