package analysis

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/domain"
)

func TestNewViewDefaults(t *testing.T) {
	v := NewView(domain.Document{})
	if v.LLMAnalysis.Strengths != NotAvailable || v.LLMAnalysis.OverallConfidence != NotAvailable {
		t.Fatalf("expected defaults, got %+v", v.LLMAnalysis)
	}
	if v.Feasibility.KPIs != NotAvailable || v.Feasibility.Financial.Basis != NotAvailable {
		t.Fatalf("expected defaults, got %+v", v.Feasibility)
	}
}

func TestNewViewTopLevelAndNested(t *testing.T) {
	doc := domain.Document{
		"overall_confidence":          0.0,
		"strengths":                   "  ",
		"market_feasibility_feedback": "large market",
		"analysis": primitive.M{
			"strengths":                "experienced team",
			"market_feasibility_basis": "survey",
			"extracted_kpis":           []any{"mrr"},
		},
	}
	v := NewView(doc)
	if v.LLMAnalysis.OverallConfidence != 0.0 {
		t.Fatalf("zero score must be kept, got %v", v.LLMAnalysis.OverallConfidence)
	}
	if v.LLMAnalysis.Strengths != "experienced team" {
		t.Fatalf("blank top-level should fall back to nested, got %v", v.LLMAnalysis.Strengths)
	}
	if v.Feasibility.Market.Feedback != "large market" || v.Feasibility.Market.Basis != "survey" {
		t.Fatalf("unexpected market feasibility %+v", v.Feasibility.Market)
	}
	if kpis, ok := v.Feasibility.KPIs.([]any); !ok || len(kpis) != 1 {
		t.Fatalf("unexpected kpis %v", v.Feasibility.KPIs)
	}
}

func TestNewReport(t *testing.T) {
	p := &domain.Project{ID: primitive.NewObjectID(), Title: "t", Analysis: domain.Document{}}
	r := NewReport(p)
	if r.Analyzed || r.LLMAnalysis != nil || r.Feasibility != nil {
		t.Fatalf("unanalyzed project should carry no analysis: %+v", r)
	}

	p.Analysis = domain.Document{"red_flags": "none"}
	r = NewReport(p)
	if !r.Analyzed || r.LLMAnalysis == nil || r.LLMAnalysis.RedFlags != "none" {
		t.Fatalf("expected analysis in report: %+v", r)
	}
	if r.Overview.Title != "t" {
		t.Fatalf("unexpected overview %+v", r.Overview)
	}
}
