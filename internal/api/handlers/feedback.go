package handlers

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/tcmreview/internal/apperr"
	"github.com/your-org/tcmreview/internal/feedback"
	"github.com/your-org/tcmreview/pkg/dto"
)

type FeedbackService interface {
	Predict(ctx context.Context, originalName string, data []byte) (feedback.Prediction, error)
	Annotate(ctx context.Context, filename, groundTruth, judgment string) error
	Labels() []string
}

type FeedbackHandler struct {
	svc FeedbackService
}

func NewFeedbackHandler(svc FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

// Predict serves POST /ai_respond.
func (h *FeedbackHandler) Predict(c *gin.Context) {
	var req dto.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.BS64)
	if err != nil {
		respondError(c, apperr.Errorf(apperr.KindDecode, "feedback.Predict", "invalid base64 data: %v", err))
		return
	}

	p, err := h.svc.Predict(c.Request.Context(), req.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PredictResponse{Result: p.Result, Filename: p.Filename})
}

// Labels serves GET /ai_respond.
func (h *FeedbackHandler) Labels(c *gin.Context) {
	c.JSON(http.StatusOK, dto.LabelsResponse{List: h.svc.Labels()})
}

// Judge serves POST /ai_respond_judge.
func (h *FeedbackHandler) Judge(c *gin.Context) {
	var req dto.JudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Annotate(c.Request.Context(), req.Filename, req.Label, req.Judgment); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Judgment saved"})
}
