package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "loanrisk/internal/errors"
	"loanrisk/internal/middleware"
	"loanrisk/internal/models"
	"loanrisk/internal/scoring"
	"loanrisk/internal/services"
)

// PredictionHandler runs scoring calls and serves the history ledger.
type PredictionHandler struct {
	scorer   scoring.Scorer
	history  services.HistoryServicer
	identity services.IdentityServicer
	insight  services.InsightServicer
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(scorer scoring.Scorer, history services.HistoryServicer, identity services.IdentityServicer, insight services.InsightServicer) *PredictionHandler {
	return &PredictionHandler{
		scorer:   scorer,
		history:  history,
		identity: identity,
		insight:  insight,
	}
}

// BatchRequest is the payload for scoring several applications at once.
type BatchRequest struct {
	Applications []models.LoanApplication `json:"applications" binding:"required,min=1,max=50,dive"`
}

// Predict validates one application, forwards it to the scoring service,
// appends the outcome to the history ledger, bumps the user's prediction
// counter, and returns the record with explanations. Rejected outcomes
// also carry improvement recommendations.
func (h *PredictionHandler) Predict(c *gin.Context) {
	var app models.LoanApplication
	if err := c.ShouldBindJSON(&app); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	results, err := h.scorer.Predict(c.Request.Context(), []models.LoanApplication{app})
	if err != nil {
		respondWithError(c, err)
		return
	}

	record := services.BuildRecord(app, results[0].Prediction, results[0].ApprovalProbability, results[0].RejectionProbability)
	if err := h.history.Append(record); err != nil {
		respondWithError(c, err)
		return
	}
	if username, ok := middleware.Username(c); ok {
		if err := h.identity.IncrementPredictionCount(username); err != nil {
			respondWithError(c, err)
			return
		}
	}

	resp := gin.H{
		"record":   record,
		"findings": h.insight.Explain(record),
	}
	if !record.Approved() {
		resp["recommendations"] = h.insight.Recommend(record)
	}
	c.JSON(http.StatusOK, resp)
}

// PredictBatch scores an ordered sequence of applications in one call and
// appends every outcome to the ledger.
func (h *PredictionHandler) PredictBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	results, err := h.scorer.Predict(c.Request.Context(), req.Applications)
	if err != nil {
		respondWithError(c, err)
		return
	}

	records := make([]models.PredictionRecord, 0, len(results))
	for i, res := range results {
		record := services.BuildRecord(req.Applications[i], res.Prediction, res.ApprovalProbability, res.RejectionProbability)
		if err := h.history.Append(record); err != nil {
			respondWithError(c, err)
			return
		}
		records = append(records, record)
	}
	if username, ok := middleware.Username(c); ok {
		if err := h.identity.IncrementPredictionCount(username); err != nil {
			respondWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// List returns the ledger newest-first.
func (h *PredictionHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"predictions": h.history.All()})
}

// Get returns a single ledger entry by ID with its explanations.
func (h *PredictionHandler) Get(c *gin.Context) {
	record, err := h.history.Find(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := gin.H{
		"record":   record,
		"findings": h.insight.Explain(*record),
	}
	if !record.Approved() {
		resp["recommendations"] = h.insight.Recommend(*record)
	}
	c.JSON(http.StatusOK, resp)
}

// Summary returns the aggregate metrics over the current ledger.
func (h *PredictionHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"aggregates": h.history.Aggregates()})
}
