package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"club-recon/internal/domain"
)

type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequest(c *gin.Context, message, details string) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func InternalError(c *gin.Context, message, details string) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, details)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func ValidationError(c *gin.Context, details interface{}) {
	Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", details)
}

// DomainError maps the reconciliation error taxonomy onto HTTP codes. Guard
// rejections come back as 428 so clients know to re-invoke with the
// confirmation flag; partial split failures carry the completed-operation
// lists so the caller can reconcile.
func DomainError(c *gin.Context, err error) {
	var validationErr *domain.SplitValidationError
	var partialErr *domain.PartialSplitError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, domain.ErrDuplicateLink):
		Error(c, http.StatusConflict, "DUPLICATE_LINK", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidSplitTarget):
		Error(c, http.StatusConflict, "INVALID_SPLIT_TARGET", err.Error(), nil)
	case errors.Is(err, domain.ErrLinkedTransaction):
		Error(c, http.StatusConflict, "LINKED_TRANSACTION", err.Error(), nil)
	case errors.Is(err, domain.ErrUnsafeMergeRejected):
		Error(c, http.StatusPreconditionRequired, "UNSAFE_MERGE_REJECTED", err.Error(), nil)
	case errors.As(err, &validationErr):
		Error(c, http.StatusUnprocessableEntity, "SPLIT_VALIDATION_FAILED", "Validation failed", validationErr.Reasons)
	case errors.As(err, &partialErr):
		Error(c, http.StatusInternalServerError, "PARTIAL_SPLIT_FAILURE", partialErr.Error(), gin.H{
			"created_child_ids":   partialErr.CreatedChildIDs,
			"deleted_child_ids":   partialErr.DeletedChildIDs,
			"parent_flag_updated": partialErr.ParentFlagUpdated,
		})
	default:
		InternalError(c, "Request failed", err.Error())
	}
}
