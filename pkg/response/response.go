// Package response writes the collection API's JSON bodies.
//
// Successful responses are the bare payload (the list endpoint returns a JSON
// array); errors use a small {"error": code, "message": text} object.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes.
const (
	CodeBadRequest      = "bad_request"
	CodeNotFound        = "not_found"
	CodeTooManyRequests = "too_many_requests"
	CodeInternal        = "internal"

	DefaultErrorMessage = "internal server error"
)

// ErrorResp is the body of every non-2xx response.
type ErrorResp struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// OK sends 200 JSON with data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// BadRequest sends 400 with the error text.
func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResp{Error: CodeBadRequest, Message: err.Error()})
}

// NotFound sends 404 {"error":"not_found"}.
func NotFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorResp{Error: CodeNotFound})
}

// TooManyRequests sends 429.
func TooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResp{Error: CodeTooManyRequests})
}

// InternalError sends 500 without leaking err to the client.
func InternalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResp{Error: CodeInternal, Message: DefaultErrorMessage})
}
