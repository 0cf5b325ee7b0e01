package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/agency-ledger/pkg/errors"
	"github.com/angelmondragon/agency-ledger/pkg/logger"
	"github.com/angelmondragon/agency-ledger/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]string{"id": "abc"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"message":"ok","data":{"id":"abc"}}`, rec.Body.String())
}

func TestWriteErrorBusinessRule(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	rec := httptest.NewRecorder()

	err := pkgerrors.New(pkgerrors.CodeInsufficientAdvance, "advance 20.00 is less than 30.00").
		WithDetails(map[string]any{"advance": "20.00"})
	WriteError(context.Background(), logg, rec, err)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "INSUFFICIENT_ADVANCE", body.Error.Code)
	assert.Equal(t, "advance 20.00 is less than 30.00", body.Error.Message)
	assert.False(t, body.Error.Retryable)
	assert.NotNil(t, body.Error.Details)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("pq: relation does not exist"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "internal server error", body.Error.Message)
}

func TestWriteErrorUnavailableIsRetryable(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.Wrap(pkgerrors.CodeUnavailable, errors.New("deadline"), "commit"))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error.Retryable)
	assert.Equal(t, "service temporarily unavailable", body.Message)
}
