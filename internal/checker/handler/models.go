package handler

import (
	"strings"
	"time"

	"appetite/internal/checker/models"
	dErrors "appetite/pkg/domain-errors"
)

type LocationRequest struct {
	State   string `json:"state"`
	Zipcode string `json:"zipcode,omitempty"`
}

func (l *LocationRequest) normalize() {
	l.State = strings.ToUpper(strings.TrimSpace(l.State))
	l.Zipcode = strings.TrimSpace(l.Zipcode)
}

type EvaluateRequest struct {
	SubmissionID string          `json:"submissionId"`
	BusinessDesc string          `json:"businessDesc"`
	NaicsCode    string          `json:"naicsCode"`
	Location     LocationRequest `json:"location"`
}

func (r *EvaluateRequest) Normalize() {
	r.SubmissionID = strings.TrimSpace(r.SubmissionID)
	r.NaicsCode = strings.TrimSpace(r.NaicsCode)
	r.Location.normalize()
}

func (r *EvaluateRequest) Validate() error {
	if r.NaicsCode == "" {
		return dErrors.New(dErrors.CodeValidation, "naicsCode is required")
	}
	if r.Location.State == "" {
		return dErrors.New(dErrors.CodeValidation, "location.state is required")
	}
	return nil
}

func (r *EvaluateRequest) toSubmission() *models.Submission {
	return &models.Submission{
		ID:                  r.SubmissionID,
		BusinessDescription: r.BusinessDesc,
		NaicsCode:           r.NaicsCode,
		Location:            models.Location{State: r.Location.State, PostalCode: r.Location.Zipcode},
	}
}

type EligibilityCheckRequest struct {
	SubmissionID string          `json:"submissionId"`
	ProductID    string          `json:"productId"`
	NaicsCode    string          `json:"naicsCode"`
	Location     LocationRequest `json:"location"`
}

func (r *EligibilityCheckRequest) Normalize() {
	r.SubmissionID = strings.TrimSpace(r.SubmissionID)
	r.ProductID = strings.TrimSpace(r.ProductID)
	r.NaicsCode = strings.TrimSpace(r.NaicsCode)
	r.Location.normalize()
}

func (r *EligibilityCheckRequest) Validate() error {
	if r.ProductID == "" {
		return dErrors.New(dErrors.CodeValidation, "productId is required")
	}
	if r.NaicsCode == "" {
		return dErrors.New(dErrors.CodeValidation, "naicsCode is required")
	}
	return nil
}

type PrepareSummaryRequest struct {
	SubmissionID string  `json:"submissionId"`
	Decision     string  `json:"decision"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`

	decision models.Decision
}

func (r *PrepareSummaryRequest) Normalize() {
	r.SubmissionID = strings.TrimSpace(r.SubmissionID)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *PrepareSummaryRequest) Validate() error {
	d, err := models.ParseDecision(r.Decision)
	if err != nil {
		return err
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return dErrors.New(dErrors.CodeValidation, "confidence must be between 0 and 1")
	}
	r.decision = d
	return nil
}

type NotifyAnalyticsRequest struct {
	SubmissionID     string    `json:"submissionId"`
	Decision         string    `json:"decision"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	Timestamp        time.Time `json:"timestamp"`

	decision models.Decision
}

func (r *NotifyAnalyticsRequest) Normalize() {
	r.SubmissionID = strings.TrimSpace(r.SubmissionID)
}

func (r *NotifyAnalyticsRequest) Validate() error {
	if r.SubmissionID == "" {
		return dErrors.New(dErrors.CodeValidation, "submissionId is required")
	}
	d, err := models.ParseDecision(r.Decision)
	if err != nil {
		return err
	}
	if r.ProcessingTimeMs < 0 {
		return dErrors.New(dErrors.CodeValidation, "processingTimeMs must not be negative")
	}
	r.decision = d
	return nil
}

type EvaluateResponse struct {
	SubmissionID string  `json:"submissionId"`
	Decision     string  `json:"decision"`
	MatchedRule  string  `json:"matchedRule"`
	Reason       string  `json:"reason"`
	Confidence   float64 `json:"confidence"`
}

func FromEvaluation(e *models.Evaluation) EvaluateResponse {
	return EvaluateResponse{
		SubmissionID: e.SubmissionID,
		Decision:     e.Decision.String(),
		MatchedRule:  e.MatchedRule,
		Reason:       e.Reason,
		Confidence:   e.Confidence,
	}
}

type ConfidenceScoreResponse struct {
	Naics           string  `json:"naics"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Desc            string  `json:"desc"`
}

type EligibilityCheckResponse struct {
	SubmissionID string `json:"submissionId"`
	ProductID    string `json:"productId"`
	Eligible     bool   `json:"eligible"`
	Reason       string `json:"reason"`
}

type AlternativeResponse struct {
	Naics     string `json:"naics"`
	ProductID string `json:"productId"`
	Desc      string `json:"desc"`
}

type RecommendationsResponse struct {
	SubmissionID string                `json:"submissionId"`
	Alternatives []AlternativeResponse `json:"alternatives"`
}

func FromAlternatives(submissionID string, alts []models.Alternative) RecommendationsResponse {
	out := RecommendationsResponse{SubmissionID: submissionID, Alternatives: make([]AlternativeResponse, 0, len(alts))}
	for _, a := range alts {
		out.Alternatives = append(out.Alternatives, AlternativeResponse{Naics: a.Naics, ProductID: a.ProductID, Desc: a.Description})
	}
	return out
}

type PrepareSummaryResponse struct {
	SubmissionID string `json:"submissionId"`
	Summary      string `json:"summary"`
}

type ResultResponse struct {
	SubmissionID string  `json:"submissionId"`
	Decision     string  `json:"decision"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
	MatchedRule  string  `json:"matchedRule"`
	EvaluatedAt  string  `json:"evaluatedAt"`
}

func FromSubmission(s *models.Submission) ResultResponse {
	return ResultResponse{
		SubmissionID: s.ID,
		Decision:     s.Decision.String(),
		Confidence:   s.Confidence,
		Reason:       s.Reason,
		MatchedRule:  s.MatchedRule,
		EvaluatedAt:  s.EvaluatedAt.UTC().Format(time.RFC3339),
	}
}

type NotifyAnalyticsResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	SubmissionID string `json:"submissionId"`
}
