package analysis

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/domain"
)

// NotAvailable stands in for fields missing from the analysis document.
const NotAvailable = "Not available"

// nestedKey holds a sub-document some service versions wrap their fields in.
const nestedKey = "analysis"

type LLMAnalysis struct {
	OverallConfidence     any `json:"overall_confidence"`
	ProblemAndMarketScore any `json:"problem_and_market_score"`
	ValueAndModelScore    any `json:"value_and_model_score"`
	TeamAndTractionScore  any `json:"team_and_traction_score"`
	FundingReadinessScore any `json:"funding_readiness_score"`
	Strengths             any `json:"strengths"`
	Weaknesses            any `json:"weaknesses"`
	PrioritizedActions    any `json:"prioritized_actions"`
	RedFlags              any `json:"red_flags"`
	RiskAssessment        any `json:"risk_assessment"`
}

type MarketFeasibility struct {
	Feedback any `json:"market_feasibility_feedback"`
	Basis    any `json:"market_feasibility_basis"`
}

type TechnicalFeasibility struct {
	Feedback any `json:"technical_feasibility_feedback"`
	Basis    any `json:"technical_feasibility_basis"`
}

type FinancialFeasibility struct {
	Feedback              any `json:"financial_feasibility_feedback"`
	Basis                 any `json:"financial_feasibility_basis"`
	ValueAndModelScore    any `json:"value_and_model_score"`
	ValueAndModelBasis    any `json:"value_and_model_basis"`
	FundingReadinessBasis any `json:"funding_readiness_basis"`
	FundingReadinessScore any `json:"funding_readiness_score"`
}

type Feasibility struct {
	Market    MarketFeasibility    `json:"market_feasibility"`
	Technical TechnicalFeasibility `json:"technical_feasibility"`
	Financial FinancialFeasibility `json:"financial_feasibility"`
	KPIs      any                  `json:"kpis"`
}

// View is the normalized shape of an analysis document.
type View struct {
	LLMAnalysis LLMAnalysis `json:"llmAnalysis"`
	Feasibility Feasibility `json:"feasibility"`
}

// NewView normalizes doc. Each field is read from the top level first and then
// from the nested "analysis" sub-document; missing fields become NotAvailable.
func NewView(doc domain.Document) View {
	get := func(key string) any { return lookup(doc, key) }

	return View{
		LLMAnalysis: LLMAnalysis{
			OverallConfidence:     get("overall_confidence"),
			ProblemAndMarketScore: get("problem_and_market_score"),
			ValueAndModelScore:    get("value_and_model_score"),
			TeamAndTractionScore:  get("team_and_traction_score"),
			FundingReadinessScore: get("funding_readiness_score"),
			Strengths:             get("strengths"),
			Weaknesses:            get("weaknesses"),
			PrioritizedActions:    get("prioritized_actions"),
			RedFlags:              get("red_flags"),
			RiskAssessment:        get("risk_assessment"),
		},
		Feasibility: Feasibility{
			Market: MarketFeasibility{
				Feedback: get("market_feasibility_feedback"),
				Basis:    get("market_feasibility_basis"),
			},
			Technical: TechnicalFeasibility{
				Feedback: get("technical_feasibility_feedback"),
				Basis:    get("technical_feasibility_basis"),
			},
			Financial: FinancialFeasibility{
				Feedback:              get("financial_feasibility_feedback"),
				Basis:                 get("financial_feasibility_basis"),
				ValueAndModelScore:    get("value_and_model_score"),
				ValueAndModelBasis:    get("value_and_model_basis"),
				FundingReadinessBasis: get("funding_readiness_basis"),
				FundingReadinessScore: get("funding_readiness_score"),
			},
			KPIs: get("extracted_kpis"),
		},
	}
}

// lookup treats nil and blank strings as missing. Zero scores are kept.
func lookup(doc domain.Document, key string) any {
	if v, ok := present(doc, key); ok {
		return v
	}
	if nested, ok := asMap(doc[nestedKey]); ok {
		if v, ok := present(nested, key); ok {
			return v
		}
	}
	return NotAvailable
}

// asMap accepts the map shapes a sub-document takes after JSON or BSON decoding.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case domain.Document:
		return m, true
	case primitive.M:
		return m, true
	}
	return nil, false
}

func present(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

// Overview is the descriptive part of a project shown to mentors.
type Overview struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Tags          []string            `json:"tags"`
	UploadedFiles []domain.FileRecord `json:"uploadedFiles"`
	Transcript    []domain.Document   `json:"transcript"`
	FormattedFile domain.Document     `json:"formattedFile"`
}

// Report is the mentor's view of a project. Analysis fields are nil until the
// project has been analyzed.
type Report struct {
	ID            string           `json:"id"`
	Overview      Overview         `json:"overview"`
	Analyzed      bool             `json:"analyzed"`
	LLMAnalysis   *LLMAnalysis     `json:"llmAnalysis"`
	Feasibility   *Feasibility     `json:"feasibility"`
	Feedback      domain.Document  `json:"feedback"`
	Comments      []domain.Comment `json:"comments"`
	MentorRemarks domain.Document  `json:"mentorRemarks"`
}

// NewReport builds the mentor view of p.
func NewReport(p *domain.Project) Report {
	report := Report{
		ID: p.ID.Hex(),
		Overview: Overview{
			Title:         p.Title,
			Description:   p.Description,
			Tags:          p.Tags,
			UploadedFiles: p.RawFiles,
			Transcript:    p.Transcript,
			FormattedFile: p.FormattedFile,
		},
		Analyzed:      p.IsAnalyzed(),
		Feedback:      p.Feedback,
		Comments:      p.Comments,
		MentorRemarks: p.MentorRemarks,
	}
	if report.Analyzed {
		view := NewView(p.Analysis)
		report.LLMAnalysis = &view.LLMAnalysis
		report.Feasibility = &view.Feasibility
	}
	return report
}
