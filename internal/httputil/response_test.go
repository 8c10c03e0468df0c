package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWithSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WithSuccess(rec, map[string]string{"name": "Acme"}, "Company created successfully!")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(200), body["status"])
	assert.Equal(t, "Company created successfully!", body["message"])
	assert.Equal(t, map[string]any{"name": "Acme"}, body["json_data"])
}

func TestWithSuccessEmptyDataIsObject(t *testing.T) {
	rec := httptest.NewRecorder()
	WithSuccess(rec, nil, "Logout successful!")

	body := decode(t, rec)
	// json_data must be an empty object, never null
	assert.Equal(t, map[string]any{}, body["json_data"])
}

func TestWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	WithError(rec, "Company not found!")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Company not found!", body["message"])
	_, hasPlural := body["messages"]
	assert.False(t, hasPlural)
}

func TestWithValidationErrorUsesPluralMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	WithValidationError(rec, map[string]string{"email": "Invalid email address"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(422), body["status"])
	assert.Equal(t, map[string]any{"email": "Invalid email address"}, body["messages"])
	_, hasSingular := body["message"]
	assert.False(t, hasSingular)
}
