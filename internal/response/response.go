// Package response provides standardized JSON response helpers.
package response

import (
	"net/http"

	app_errors "vitalstore/internal/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse defines the standard JSON error response structure.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON sends a plain 200 response with the given payload.
// The query endpoints return their wire shapes directly, un-enveloped.
func JSON(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Error sends a standardized error response using an APIError.
func Error(c *gin.Context, apiErr *app_errors.APIError) {
	c.JSON(apiErr.HTTPStatus, ErrorResponse{
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}
