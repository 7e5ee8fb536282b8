package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/logger"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestWriteJSONWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]string{"total": "65.00"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, map[string]any{"total": "65.00"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestWriteErrorValidationIncludesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperrors.New(apperrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"items[0].description": "is required"})
	WriteError(context.Background(), rec, logger.Nop(), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", e["code"])
	assert.Equal(t, map[string]any{"items[0].description": "is required"}, e["details"])
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), rec, logger.Nop(), errors.New("disk I/O error at /var/db"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, "INTERNAL_ERROR", e["code"])
	assert.Equal(t, "internal server error", e["message"])
	assert.NotContains(t, e, "details")
}

func TestWriteErrorNotFoundKeepsMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), rec, nil, apperrors.New(apperrors.CodeNotFound, "template not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "template not found", decode(t, rec)["error"].(map[string]any)["message"])
}
