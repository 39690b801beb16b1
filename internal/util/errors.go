package util

import (
	"log"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every API error
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// SafeErrorResponse writes a JSON error, logging details but only exposing the underlying
// error outside release mode
func SafeErrorResponse(c *gin.Context, statusCode int, userMessage string, err error) {
	if err != nil {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	body := ErrorBody{Success: false, Message: userMessage}
	if gin.Mode() != gin.ReleaseMode && err != nil {
		body.Error = err.Error()
	}
	c.AbortWithStatusJSON(statusCode, body)
}

// ValidationErrorResponse reports a client input problem. The message is the
// validation error itself, so it is always shown.
func ValidationErrorResponse(c *gin.Context, statusCode int, err error) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Success: false, Message: err.Error()})
}
