package ai

import "context"

// Review is the structured outcome of an AI pass over a submitted CV.
type Review struct {
	// Score is the overall quality/fit score on a 0-100 scale.
	Score float64 `json:"score"`
	// Summary is a short overall assessment.
	Summary string `json:"summary"`
	// Strengths lists what the CV does well.
	Strengths []string `json:"strengths,omitempty"`
	// Gaps lists missing or weak areas, relative to the job when one is given.
	Gaps []string `json:"gaps,omitempty"`
	// Suggestions lists concrete improvements.
	Suggestions []string `json:"suggestions,omitempty"`
	// Raw holds the unparsed model output for debugging.
	Raw string `json:"-"`
}

// Request carries one CV to review, optionally against a job description.
type Request struct {
	ID   string
	Name string
	CV   string
	Job  string
}

// Reviewer evaluates a CV and produces a structured review.
type Reviewer interface {
	Review(ctx context.Context, req *Request) (*Review, error)
}
