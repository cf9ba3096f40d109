package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"contractlens/internal/domain"
	"contractlens/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// RespondFailedRun sends an error response that still carries the run's
// result, so callers can read the per-segment warnings.
func RespondFailedRun(c *gin.Context, err error, result interface{}) {
	status, code, msg := MapDomainError(err)
	c.JSON(status, APIResponse{
		Success: false,
		Data:    result,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNoInput):
		return http.StatusBadRequest, "NO_INPUT", "provide a file, a url or text"
	case errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_DOCUMENT", "no text found in the input"
	case errors.Is(err, domain.ErrTextTooShort):
		return http.StatusBadRequest, "TEXT_TOO_SHORT", err.Error()
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, docx, txt"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusUnprocessableEntity, "SOURCE_UNAVAILABLE", "no text could be extracted from the source"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrInvalidMode):
		return http.StatusBadRequest, "INVALID_MODE", "mode must be analyze or humanize"
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound, "RUN_NOT_FOUND", "run not found"
	case errors.Is(err, domain.ErrAllSegmentsFailed):
		return http.StatusBadGateway, "ALL_SEGMENTS_FAILED", "the model produced no usable output for any segment"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, logger *zap.Logger, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 && logger != nil {
		logger.Error("internal error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
	}
	RespondError(c, status, code, msg)
}
