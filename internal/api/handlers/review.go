package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/tcmreview/internal/models"
	"github.com/your-org/tcmreview/internal/review"
	"github.com/your-org/tcmreview/pkg/dto"
)

type ReviewService interface {
	SubmitBatch(ctx context.Context, items []review.SubmitItem) ([]models.ReviewRecord, error)
	Review(ctx context.Context, decisions []review.Decision) (int, error)
	ListPending(ctx context.Context) ([]review.PendingImage, error)
	ListHistory(ctx context.Context, f review.HistoryFilter) ([]review.HistoryEntry, error)
}

type Catalog interface {
	Names(ctx context.Context) ([]string, error)
}

type ReviewHandler struct {
	svc     ReviewService
	catalog Catalog
}

func NewReviewHandler(svc ReviewService, catalog Catalog) *ReviewHandler {
	return &ReviewHandler{svc: svc, catalog: catalog}
}

// Catalog serves GET /upload: the label names offered to uploaders.
func (h *ReviewHandler) Catalog(c *gin.Context) {
	names, err := h.catalog.Names(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CatalogResponse{NameList: names})
}

// Upload serves POST /upload.
func (h *ReviewHandler) Upload(c *gin.Context) {
	var req dto.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	items := make([]review.SubmitItem, 0, len(req.Images))
	for _, img := range req.Images {
		if img.Filename == "" {
			badRequest(c, errors.New("every image needs a filename"))
			return
		}
		items = append(items, review.SubmitItem{BaseName: img.Filename, Label: img.Label, Data: img.File})
	}

	recs, err := h.svc.SubmitBatch(c.Request.Context(), items)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.UploadResponse{Uploaded: make([]dto.UploadedItem, 0, len(recs))}
	for _, r := range recs {
		resp.Uploaded = append(resp.Uploaded, dto.UploadedItem{Name: r.Filename, Status: string(r.Status), Label: r.Label})
	}
	c.JSON(http.StatusOK, resp)
}

// Decide serves POST /review.
func (h *ReviewHandler) Decide(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	decisions := make([]review.Decision, 0, len(req.Reviews))
	for _, r := range req.Reviews {
		decisions = append(decisions, review.Decision{
			Filename:      r.Filename,
			Status:        r.Status,
			FailureReason: r.FailureReason,
			CustomReason:  r.CustomReason,
		})
	}

	n, err := h.svc.Review(c.Request.Context(), decisions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReviewResponse{Updated: n})
}

// Pending serves GET /review.
func (h *ReviewHandler) Pending(c *gin.Context) {
	pending, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.PendingResponse{Images: make([]dto.PendingImage, 0, len(pending))}
	for _, p := range pending {
		resp.Images = append(resp.Images, dto.PendingImage{
			Filename:  p.Filename,
			Label:     p.Label,
			ImageData: base64.StdEncoding.EncodeToString(p.Blob),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// History serves GET /history?startDate=&endDate=&status=.
func (h *ReviewHandler) History(c *gin.Context) {
	filter := review.HistoryFilter{
		Status:    c.DefaultQuery("status", "all"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
	entries, err := h.svc.ListHistory(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.HistoryResponse{History: make([]dto.HistoryEntry, 0, len(entries))}
	for _, e := range entries {
		resp.History = append(resp.History, dto.HistoryEntry{
			Filename:  e.Filename,
			Date:      e.UploadedAt,
			Status:    string(e.Status),
			Label:     e.Label,
			ImageData: base64.StdEncoding.EncodeToString(e.Blob),
			Reason:    e.Reason,
		})
	}
	c.JSON(http.StatusOK, resp)
}

