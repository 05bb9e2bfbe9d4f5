package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/meetup-service/internal/pkg/context"
)

func TestList_SetsTotalCount(t *testing.T) {
	rr := httptest.NewRecorder()
	List(rr, 42, []int{1, 2})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42", rr.Header().Get(HeaderTotalCount))
	assert.JSONEq(t, `{"data":[1,2]}`, rr.Body.String())
}

func TestErr_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.ErrValidation("bad"), http.StatusBadRequest, "validation_error"},
		{"forbidden", domain.ErrForbidden("no"), http.StatusForbidden, "forbidden"},
		{"not_found", domain.ErrNotFound("gone"), http.StatusNotFound, "not_found"},
		{"conflict", domain.ErrConflict("dup"), http.StatusConflict, "conflict"},
		{"wrapped", errors.Join(errors.New("ctx"), domain.ErrNotFound("gone")), http.StatusNotFound, "not_found"},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req = req.WithContext(appCtx.WithRequestID(req.Context(), "req-9"))
			rr := httptest.NewRecorder()

			Err(rr, req, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, "req-9", body.Error.RequestID)
			assert.NotContains(t, rr.Body.String(), "db exploded")
		})
	}
}

func TestErr_KeepsMeta(t *testing.T) {
	rr := httptest.NewRecorder()
	Err(rr, httptest.NewRequest(http.MethodGet, "/", nil),
		domain.ErrValidationMeta("invalid", map[string]string{"lat": "must be <= 90"}))

	assert.Contains(t, rr.Body.String(), `"lat":"must be <= 90"`)
}
