package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"contractlens/internal/domain"
	"contractlens/internal/service"
)

// RunHandler serves stored run history.
type RunHandler struct {
	runService service.RunService
	logger     *zap.Logger
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(runService service.RunService, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunHandler{runService: runService, logger: logger.Named("handler.run")}
}

// List handles GET /api/v1/runs
// Optional query parameters: mode (analyze, humanize), offset, limit.
// @Summary List runs
// @Description List stored runs, newest first
// @Tags runs
// @Produce json
// @Param mode query string false "Filter by mode" Enums(analyze, humanize)
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.Run,meta=PagMeta} "Runs"
// @Failure 400 {object} ErrorResponseBody "Invalid mode"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /api/v1/runs [get]
func (h *RunHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)
	mode := domain.Mode(c.Query("mode"))

	runs, total, err := h.runService.List(c.Request.Context(), mode, offset, limit)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}
	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/runs/:id
// @Summary Get run by ID
// @Description Get a stored run, with a temporary download link for an archived upload
// @Tags runs
// @Produce json
// @Param id path string true "Run ID (UUID)"
// @Success 200 {object} Response{data=service.RunDetail} "Run details"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Run not found"
// @Security BearerAuth
// @Router /api/v1/runs/{id} [get]
func (h *RunHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	run, err := h.runService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, run)
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
