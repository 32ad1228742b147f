package handler

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"

	"github.com/finanalyzer/api/internal/model"
	"github.com/finanalyzer/api/internal/service"
	"github.com/finanalyzer/api/internal/store"
	"github.com/finanalyzer/api/pkg/response"
)

type AnalysisHandler struct {
	service        *service.AnalysisService
	validator      *validator.Validate
	maxUploadBytes int64
}

func NewAnalysisHandler(svc *service.AnalysisService, v *validator.Validate, maxUploadMB int) *AnalysisHandler {
	return &AnalysisHandler{
		service:        svc,
		validator:      v,
		maxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
	}
}

// Analyze handles POST /analyze, the immediate path. The caller
// blocks until the analysis reaches COMPLETED or FAILED.
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	job, sourcePath, err := h.acceptUpload(c)
	if err != nil || job == nil {
		return err
	}

	result, runErr := h.service.AnalyzeSync(c.Context(), job, sourcePath)
	if runErr != nil {
		return response.AnalysisFailed(c, fmt.Sprintf("Error processing financial document: %v", runErr))
	}

	return response.OK(c, result)
}

// AnalyzeAsync handles POST /analyze-async, the queued path. Returns
// 202 immediately; callers poll GET /analysis/:id for completion.
func (h *AnalysisHandler) AnalyzeAsync(c *fiber.Ctx) error {
	job, sourcePath, err := h.acceptUpload(c)
	if err != nil || job == nil {
		return err
	}

	if err := h.service.EnqueueAnalysis(c.Context(), job, sourcePath); err != nil {
		return response.ServiceError(c, "Could not queue analysis")
	}

	return response.Accepted(c, model.AnalyzeAsyncResponse{
		Status:     "accepted",
		AnalysisID: job.ID,
		Message:    "Analysis queued. Poll GET /analysis/{analysis_id} for results.",
	})
}

// acceptUpload validates the multipart submission, creates the PENDING
// job record, and persists the upload. On a handled validation error
// it writes the response itself and returns a nil job.
func (h *AnalysisHandler) acceptUpload(c *fiber.Ctx) (*model.Job, string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, "", response.ValidationError(c, "File is required", nil)
	}

	if fileHeader.Size > h.maxUploadBytes {
		return nil, "", response.PayloadTooLarge(c,
			fmt.Sprintf("File exceeds %d MB limit", h.maxUploadBytes/(1024*1024)),
			map[string]interface{}{
				"maxSize":  h.maxUploadBytes,
				"fileSize": fileHeader.Size,
			})
	}

	query := c.FormValue("query")

	job, err := h.service.CreateJob(c.Context(), fileHeader.Filename, query)
	if err != nil {
		return nil, "", response.ServiceError(c, "Could not create analysis record")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", response.ServiceError(c, "Failed to open uploaded file")
	}
	defer f.Close()

	sourcePath, err := h.service.SaveUpload(job, f)
	if err != nil {
		return nil, "", response.ServiceError(c, "Failed to store uploaded file")
	}

	return job, sourcePath, nil
}

// GetAnalysis handles GET /analysis/:id.
func (h *AnalysisHandler) GetAnalysis(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.ValidationError(c, "Analysis ID is required", nil)
	}

	job, err := h.service.GetAnalysis(c.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrJobNotFound) {
			return response.NotFound(c, "Analysis not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, job)
}

// ListAnalyses handles GET /analyses?skip=0&limit=20.
func (h *AnalysisHandler) ListAnalyses(c *fiber.Ctx) error {
	params := model.ListParams{
		Skip:  c.QueryInt("skip", 0),
		Limit: c.QueryInt("limit", 20),
	}
	if err := h.validator.Struct(&params); err != nil {
		return response.ValidationError(c, "Invalid pagination parameters", err.Error())
	}

	summaries, err := h.service.ListAnalyses(c.Context(), params.Skip, params.Limit)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, summaries)
}
