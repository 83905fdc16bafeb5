// Package handlers contains the gin HTTP handlers. Every response uses the
// same envelope: {success, message, data}.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	contextutils "readerapp/internal/utils"
)

// Envelope is the uniform response body shape.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// RespondOK writes a 200 envelope.
func RespondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// RespondError converts an error into the envelope with the status class
// mandated by its error code. Unknown errors become 500 with the underlying
// message surfaced.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusForError(err), Envelope{Success: false, Message: err.Error(), Data: nil})
}

func statusForError(err error) int {
	switch contextutils.GetErrorCode(err) {
	case contextutils.ErrorCodeInvalidInput,
		contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeInvalidFormat,
		contextutils.ErrorCodeValidationFailed,
		contextutils.ErrorCodeInvalidVoteType,
		contextutils.ErrorCodeInvalidStatus:
		return http.StatusBadRequest
	case contextutils.ErrorCodeUnauthorized,
		contextutils.ErrorCodeInvalidCredentials,
		contextutils.ErrorCodeSessionExpired:
		return http.StatusUnauthorized
	case contextutils.ErrorCodeForbidden:
		return http.StatusForbidden
	case contextutils.ErrorCodeRecordNotFound,
		contextutils.ErrorCodePageNotFound,
		contextutils.ErrorCodeWordNotFound:
		return http.StatusNotFound
	case contextutils.ErrorCodeConflict,
		contextutils.ErrorCodeRecordExists:
		return http.StatusConflict
	case contextutils.ErrorCodeTimeout:
		return http.StatusRequestTimeout
	case contextutils.ErrorCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
