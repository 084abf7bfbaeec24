package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/cover-letter-agent/internal/dtos"
	"github.com/justsurfingit/cover-letter-agent/internal/logging"
	"github.com/justsurfingit/cover-letter-agent/internal/services"
)

// JobExtractor turns a scraped job page into job form JSON.
type JobExtractor interface {
	ExtractJobDetails(ctx context.Context, rawHTML string) (string, error)
}

// JobHandler serves the dashboard: job postings and their letters.
type JobHandler struct {
	Extractor JobExtractor
	Store     services.Repository
	Logger    logging.Logger
}

// NewJobHandler creates the handler with dependencies. extractor may be nil
// when the configured generation backend cannot extract job details.
func NewJobHandler(extractor JobExtractor, store services.Repository, logger logging.Logger) *JobHandler {
	return &JobHandler{
		Extractor: extractor,
		Store:     store,
		Logger:    logger,
	}
}

// ParseJob is the POST /jobs/extract endpoint
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if h.Extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job extraction is not available"})
		return
	}

	extractedJSON, err := h.Extractor.ExtractJobDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		h.Logger.Error(c.Request.Context(), "job extraction failed", "url", req.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI Extraction failed: " + err.Error()})
		return
	}
	if !json.Valid([]byte(extractedJSON)) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI Extraction returned malformed JSON"})
		return
	}

	// RawMessage keeps the model's JSON from being re-escaped as a string
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    json.RawMessage(extractedJSON),
	})
}

// CreateJob is POST /jobs.
func (h *JobHandler) CreateJob(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dtos.JobFormData
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	job := req.ToJob()
	job.UserID = user.ID
	saved, err := h.Store.SaveJob(c.Request.Context(), job)
	if err != nil {
		h.Logger.Error(c.Request.Context(), "create job failed", "user_id", user.ID, "error", err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	jobs, err := h.Store.ListJobs(c.Request.Context(), user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *JobHandler) GetJob(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	job, err := h.Store.GetJob(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job, "form": dtos.JobFormFromPosting(job)})
}

// UpdateJob is PUT /jobs/:id, the dashboard editor.
func (h *JobHandler) UpdateJob(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dtos.JobFormData
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	existing, err := h.Store.GetJob(ctx, user.ID, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	job := req.ToJob()
	job.ID = existing.ID
	job.UserID = user.ID
	job.CreatedAt = existing.CreatedAt

	saved, err := h.Store.SaveJob(ctx, job)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteJob(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	h.Logger.Info(c.Request.Context(), "job deleted", "user_id", user.ID, "job_id", c.Param("id"))
	c.Status(http.StatusNoContent)
}

// ListLetters is GET /jobs/:id/letters.
func (h *JobHandler) ListLetters(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Store.GetJob(ctx, user.ID, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	letters, err := h.Store.ListLetters(ctx, user.ID, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"letters": letters})
}
