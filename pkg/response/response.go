// Package response writes the wire contract shared with the legacy
// attendance server: success payloads are returned bare, failures as
// {"error": message, "code": KIND}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the failure envelope.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// OK sends a 200 JSON response with the payload as-is.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 JSON response with the payload as-is.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Fail sends an error response with the given status, code and message.
func Fail(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ErrorBody{Error: msg, Code: code})
}

// BadRequest sends 400.
func BadRequest(c *gin.Context, code, msg string) {
	Fail(c, http.StatusBadRequest, code, msg)
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, msg string) {
	Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", msg)
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, msg string) {
	Fail(c, http.StatusForbidden, "FORBIDDEN", msg)
}

// NotFound sends 404.
func NotFound(c *gin.Context, code, msg string) {
	Fail(c, http.StatusNotFound, code, msg)
}

// Conflict sends 409.
func Conflict(c *gin.Context, code, msg string) {
	Fail(c, http.StatusConflict, code, msg)
}

// Internal sends 500.
func Internal(c *gin.Context, msg string) {
	Fail(c, http.StatusInternalServerError, "INTERNAL", msg)
}
