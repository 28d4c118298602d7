package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"originwidget/core"
)

// Response is the JSON envelope of every API answer.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	CodeOK             = "OK"
	CodeAccepted       = "ACCEPTED"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeResourceBusy   = "RESOURCE_BUSY"
	CodeUnavailable    = "UNAVAILABLE"
	CodeInternal       = "INTERNAL_ERROR"
)

func respond(c *gin.Context, status int, code, message string, data any) {
	c.JSON(status, Response{Code: code, Message: message, Data: data})
}

func ok(c *gin.Context, data any) {
	respond(c, http.StatusOK, CodeOK, "OK", data)
}

func fail(c *gin.Context, status int, code, message string) {
	respond(c, status, code, message, gin.H{})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, CodeInvalidRequest, message)
}

// failErr answers with the status and code matching err.
func failErr(c *gin.Context, err error) {
	status := core.StatusCode(err)
	code := CodeInternal
	switch status {
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusBadRequest:
		code = CodeInvalidRequest
	case http.StatusServiceUnavailable:
		code = CodeUnavailable
	}
	fail(c, status, code, err.Error())
}
