package contextutils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError_PreservesCode(t *testing.T) {
	err := WrapError(ErrRecordNotFound, "loading feedback")
	assert.True(t, IsError(err, ErrRecordNotFound))
	assert.Equal(t, ErrorCodeRecordNotFound, GetErrorCode(err))
	assert.Contains(t, err.Error(), "loading feedback")
}

func TestWrapErrorf_PreservesCodeThroughLayers(t *testing.T) {
	inner := WrapErrorf(ErrConflict, "page %d is already bookmarked", 12)
	outer := WrapError(inner, "creating bookmark")
	assert.True(t, IsError(outer, ErrConflict))
	assert.Contains(t, outer.Error(), "already bookmarked")
}

func TestGetErrorCode_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(errors.New("boom")))
}

func TestIsError_DistinguishesCodes(t *testing.T) {
	err := WrapError(ErrWordNotFound, "dictionary")
	assert.True(t, IsError(err, ErrWordNotFound))
	assert.False(t, IsError(err, ErrRecordNotFound))
	assert.False(t, IsError(nil, ErrRecordNotFound))
}

func TestUserIDContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, 0, GetUserIDFromContext(ctx))

	ctx = WithUserID(ctx, 5)
	assert.Equal(t, 5, GetUserIDFromContext(ctx))
}

func TestAsError(t *testing.T) {
	err := WrapError(ErrForbidden, "not the owner")
	var appErr *AppError
	require.True(t, AsError(err, &appErr))
	assert.Equal(t, ErrorCodeForbidden, appErr.Code)
}
