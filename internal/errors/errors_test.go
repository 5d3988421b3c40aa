package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCode(t *testing.T) {
	base := ConfigInvalid("CHEMBL_TARGET is required")
	wrapped := Wrap(base, "failed to load configuration")

	assert.Equal(t, CodeConfigInvalid, GetCode(wrapped))
	assert.Equal(t, "failed to load configuration: CHEMBL_TARGET is required", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrap_ForeignError(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := Wrapf(cause, "fetch %s", "CHEMBL204")

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestNotFetched_UnwrapsCause(t *testing.T) {
	sentinel := stderrors.New("bioactivities not yet fetched")
	err := NotFetched(sentinel)

	assert.Equal(t, CodeNotFetched, GetCode(err))
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "fetch bioactivities")
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeExternalService, stderrors.New("status 503"))
	assert.Equal(t, CodeExternalService, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestGetCode_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("CHEMBL204: %w", ExternalServiceError("chembl", stderrors.New("status 503")))

	assert.Equal(t, CodeExternalService, GetCode(err))
	assert.Equal(t, CodeExternalService, GetCode(Wrap(err, "run failed")))

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "chembl service error", appErr.Message)
}
