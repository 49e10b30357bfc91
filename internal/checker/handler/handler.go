package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"appetite/internal/checker/models"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/platform/httputil"
	request "appetite/pkg/platform/middleware/request"
)

// Service is the eligibility evaluator.
type Service interface {
	Evaluate(ctx context.Context, sub *models.Submission) (*models.Evaluation, error)
	GetResult(ctx context.Context, submissionID string) (*models.Submission, error)
	ConfidenceScore(ctx context.Context, naics, description string) float64
	CheckEligibility(ctx context.Context, productID, naics, state string) (bool, string)
	Recommendations(ctx context.Context, submissionID string) []models.Alternative
	PrepareSummary(ctx context.Context, decision models.Decision, confidence float64, reason string) string
	NotifyAnalytics(ctx context.Context, submissionID string, decision models.Decision, processingTimeMs int64, at time.Time) models.NotifyResult
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the checker routes on r (the /api/checker group).
func (h *Handler) Register(r chi.Router) {
	r.Post("/evaluate", h.HandleEvaluate)
	r.Get("/confidenceScore", h.HandleConfidenceScore)
	r.Post("/eligibilityCheck", h.HandleEligibilityCheck)
	r.Get("/recommendations", h.HandleRecommendations)
	r.Post("/prepareSummary", h.HandlePrepareSummary)
	r.Get("/result/{id}", h.HandleResult)
	r.Post("/notifyAnalytics", h.HandleNotifyAnalytics)
}

func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	eval, err := h.service.Evaluate(ctx, req.toSubmission())
	if err != nil {
		h.logger.ErrorContext(ctx, "evaluation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvaluation(eval))
}

func (h *Handler) HandleConfidenceScore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	naics := strings.TrimSpace(q.Get("naics"))
	if naics == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "naics is required"))
		return
	}
	desc := q.Get("desc")
	httputil.WriteJSON(w, http.StatusOK, ConfidenceScoreResponse{
		Naics:           naics,
		ConfidenceScore: h.service.ConfidenceScore(r.Context(), naics, desc),
		Desc:            desc,
	})
}

func (h *Handler) HandleEligibilityCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[EligibilityCheckRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	eligible, reason := h.service.CheckEligibility(ctx, req.ProductID, req.NaicsCode, req.Location.State)
	httputil.WriteJSON(w, http.StatusOK, EligibilityCheckResponse{
		SubmissionID: req.SubmissionID,
		ProductID:    req.ProductID,
		Eligible:     eligible,
		Reason:       reason,
	})
}

func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	submissionID := strings.TrimSpace(r.URL.Query().Get("submissionId"))
	alts := h.service.Recommendations(r.Context(), submissionID)
	httputil.WriteJSON(w, http.StatusOK, FromAlternatives(submissionID, alts))
}

func (h *Handler) HandlePrepareSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[PrepareSummaryRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PrepareSummaryResponse{
		SubmissionID: req.SubmissionID,
		Summary:      h.service.PrepareSummary(ctx, req.decision, req.Confidence, req.Reason),
	})
}

func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub, err := h.service.GetResult(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.WarnContext(ctx, "submission not found",
				"request_id", request.GetRequestID(ctx),
				"submission_id", chi.URLParam(r, "id"),
			)
		} else {
			h.logger.ErrorContext(ctx, "failed to load submission",
				"request_id", request.GetRequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSubmission(sub))
}

func (h *Handler) HandleNotifyAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[NotifyAnalyticsRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	result := h.service.NotifyAnalytics(ctx, req.SubmissionID, req.decision, req.ProcessingTimeMs, req.Timestamp)
	httputil.WriteJSON(w, http.StatusOK, NotifyAnalyticsResponse{
		Status:       result.Status,
		Message:      result.Message,
		SubmissionID: result.SubmissionID,
	})
}
