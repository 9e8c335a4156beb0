package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hango1705/bongland-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: bad", service.ErrValidation), http.StatusBadRequest},
		{"not found", service.ErrOrderNotExist, http.StatusBadRequest},
		{"out of stock", fmt.Errorf("%w: p1", service.ErrProductOutOfStock), http.StatusBadRequest},
		{"already cancelled", service.ErrOrderAlreadyCancelled, http.StatusBadRequest},
		{"downstream", fmt.Errorf("%w: db down", service.ErrDownstream), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCodeOf(tc.err))
		})
	}
}

func TestServiceErrorJSONHidesInternalError(t *testing.T) {
	rec := httptest.NewRecorder()
	ServiceErrorJSON(rec, fmt.Errorf("%w: pq: connection refused", service.ErrDownstream))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusERR, body.Status)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestSuccessJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	SuccessJSON(rec, []string{}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"OK","message":"SUCCESS","data":[]}`, rec.Body.String())
}
