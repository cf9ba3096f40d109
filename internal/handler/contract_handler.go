package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"contractlens/internal/config"
	"contractlens/internal/domain"
	"contractlens/internal/export"
	"contractlens/internal/middleware"
	"contractlens/internal/service"
)

// ContractHandler handles contract analysis and humanization endpoints.
type ContractHandler struct {
	contractService service.ContractService
	maxUploadBytes  int64
	logger          *zap.Logger
	now             func() time.Time
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(contractService service.ContractService, limits config.LimitsConfig, logger *zap.Logger) *ContractHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractHandler{
		contractService: contractService,
		maxUploadBytes:  limits.MaxUploadMB << 20,
		logger:          logger.Named("handler.contract"),
		now:             time.Now,
	}
}

// contractRequest is the JSON or form body accepted by both endpoints.
type contractRequest struct {
	Text string `json:"text" form:"text"`
	URL  string `json:"url" form:"url"`
}

// Analyze handles POST /api/v1/contracts/analyze
// The optional format query parameter (json, csv, xlsx) selects the response body.
// @Summary Analyze a contract
// @Description Report risky clauses with a 1-10 risk score. Accepts JSON or form text/url, or a multipart file (PDF, DOCX, TXT)
// @Tags contracts
// @Accept json,mpfd
// @Produce json,text/csv
// @Param request body ContractRequest false "Contract text or URL"
// @Param file formData file false "Contract file (PDF, DOCX or TXT)"
// @Param format query string false "Response format" Enums(json, csv, xlsx) default(json)
// @Success 200 {object} Response{data=domain.AnalysisResult} "Findings, with warnings for degraded segments"
// @Failure 400 {object} ErrorResponseBody "No input, text too short or unsupported file"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 422 {object} ErrorResponseBody "No text could be extracted from the source"
// @Failure 502 {object} FailedRunResponseBody{data=domain.AnalysisResult} "Every segment failed"
// @Security BearerAuth
// @Router /api/v1/contracts/analyze [post]
func (h *ContractHandler) Analyze(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "csv" && format != "xlsx" {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be json, csv or xlsx")
		return
	}

	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	result, err := h.contractService.Analyze(c.Request.Context(), input)
	if err != nil {
		h.handleRunError(c, err, result)
		return
	}

	switch format {
	case "csv":
		h.writeExport(c, input, "csv", "text/csv; charset=utf-8", result.Analysis, export.WriteCSV)
	case "xlsx":
		h.writeExport(c, input, "xlsx",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			result.Analysis, export.WriteXLSX)
	default:
		RespondOK(c, result)
	}
}

// Humanize handles POST /api/v1/contracts/humanize
// @Summary Humanize a contract
// @Description Rewrite a contract in plain language with up to five key points
// @Tags contracts
// @Accept json,mpfd
// @Produce json
// @Param request body ContractRequest false "Contract text or URL"
// @Param file formData file false "Contract file (PDF, DOCX or TXT)"
// @Success 200 {object} Response{data=domain.HumanizeResult} "Plain-language rewrite"
// @Failure 400 {object} ErrorResponseBody "No input, text too short or unsupported file"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 422 {object} ErrorResponseBody "No text could be extracted from the source"
// @Failure 502 {object} FailedRunResponseBody{data=domain.HumanizeResult} "Every segment failed"
// @Security BearerAuth
// @Router /api/v1/contracts/humanize [post]
func (h *ContractHandler) Humanize(c *gin.Context) {
	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	result, err := h.contractService.Humanize(c.Request.Context(), input)
	if err != nil {
		h.handleRunError(c, err, result)
		return
	}
	RespondOK(c, result)
}

// handleRunError keeps the partial result in the body when every segment
// failed, so the warnings reach the caller.
func (h *ContractHandler) handleRunError(c *gin.Context, err error, result interface{}) {
	if errors.Is(err, domain.ErrAllSegmentsFailed) && !isNilResult(result) {
		h.logger.Warn("run produced no usable segments",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
		RespondFailedRun(c, err, result)
		return
	}
	HandleError(c, h.logger, err)
}

func isNilResult(result interface{}) bool {
	switch r := result.(type) {
	case *domain.AnalysisResult:
		return r == nil
	case *domain.HumanizeResult:
		return r == nil
	default:
		return result == nil
	}
}

// bindInput reads the request into a ContractInput. Multipart requests may
// carry a file; JSON and urlencoded bodies carry text or url.
// Returns false if the request is malformed (error response already written).
func (h *ContractHandler) bindInput(c *gin.Context) (service.ContractInput, bool) {
	var req contractRequest

	if c.ContentType() == "multipart/form-data" {
		req.Text = c.PostForm("text")
		req.URL = c.PostForm("url")
		input := service.ContractInput{Text: req.Text, URL: req.URL}

		file, header, err := c.Request.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return input, true
		}
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "could not read multipart form")
			return input, false
		}
		defer func() { _ = file.Close() }()

		// One byte past the limit is enough for the service to reject it.
		reader := io.Reader(file)
		if h.maxUploadBytes > 0 {
			reader = io.LimitReader(file, h.maxUploadBytes+1)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "could not read uploaded file")
			return input, false
		}
		input.File = data
		input.Filename = header.Filename
		input.ContentType = header.Header.Get("Content-Type")
		return input, true
	}

	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON or form data with text or url")
		return service.ContractInput{}, false
	}
	return service.ContractInput{Text: req.Text, URL: req.URL}, true
}

func (h *ContractHandler) writeExport(
	c *gin.Context,
	input service.ContractInput,
	ext, contentType string,
	findings []domain.Finding,
	write func(io.Writer, []domain.Finding) error,
) {
	name := strings.TrimSuffix(input.Filename, filepath.Ext(input.Filename))
	filename := export.BuildFilename(name, ext, h.now())

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	if err := write(c.Writer, findings); err != nil {
		h.logger.Error("writing export",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("format", ext),
			zap.Error(err))
	}
}
