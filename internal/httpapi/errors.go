package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// Error codes
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeDataFetchError   = "DATA_FETCH_ERROR"
	CodeUpdateError      = "UPDATE_ERROR"
)

func sendError(c *gin.Context, statusCode int, errorCode, errorMessage, detailedMessage string, details interface{}) {
	response := ErrorResponse{
		Error:   errorMessage,
		Message: detailedMessage,
		Code:    errorCode,
	}
	if details != nil {
		response.Details = details
	}
	c.AbortWithStatusJSON(statusCode, response)
}

func sendValidationError(c *gin.Context, message string, details interface{}) {
	sendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed", message, details)
}

func sendNotFoundError(c *gin.Context, resource string) {
	sendError(c, http.StatusNotFound, CodeResourceNotFound, "Resource not found",
		"The requested "+resource+" was not found", nil)
}

func sendFetchError(c *gin.Context, message string) {
	sendError(c, http.StatusBadGateway, CodeDataFetchError, "Failed to fetch data", message, nil)
}
