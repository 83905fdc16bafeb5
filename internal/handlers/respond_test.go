package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	contextutils "readerapp/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing required", contextutils.ErrMissingRequired, http.StatusBadRequest},
		{"invalid vote type", contextutils.ErrInvalidVoteType, http.StatusBadRequest},
		{"invalid status", contextutils.ErrInvalidStatus, http.StatusBadRequest},
		{"unauthorized", contextutils.ErrUnauthorized, http.StatusUnauthorized},
		{"session expired", contextutils.ErrSessionExpired, http.StatusUnauthorized},
		{"forbidden", contextutils.ErrForbidden, http.StatusForbidden},
		{"record not found", contextutils.ErrRecordNotFound, http.StatusNotFound},
		{"page not found", contextutils.ErrPageNotFound, http.StatusNotFound},
		{"word not found", contextutils.ErrWordNotFound, http.StatusNotFound},
		{"conflict", contextutils.ErrConflict, http.StatusConflict},
		{"record exists", contextutils.ErrRecordExists, http.StatusConflict},
		{"wrapped keeps its code", contextutils.WrapError(contextutils.ErrConflict, "page 3 is already bookmarked"), http.StatusConflict},
		{"unknown error is internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestRespondError_WritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, contextutils.WrapError(contextutils.ErrRecordNotFound, "feedback not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Message, "feedback not found")
	assert.Nil(t, envelope.Data)
}

func TestRespondOK_WritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondOK(c, "feedback retrieved", gin.H{"id": 1})

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "feedback retrieved", envelope.Message)
	require.NotNil(t, envelope.Data)
}
