package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the "error" field of failed responses.
const (
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeConflict      = "invalid_transition"
	CodeUnprocessable = "malformed_level"
	CodeInternal      = "internal"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, errorBody{Error: code, Message: msg})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
