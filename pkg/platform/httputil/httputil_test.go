package httputil_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	dErrors "unireg/pkg/domain-errors"
	"unireg/pkg/platform/httputil"
)

func TestWriteError(t *testing.T) {
	t.Run("coded errors map to their status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httputil.WriteError(rec, dErrors.New(dErrors.CodeNotFound, "no such record"))

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"error":"not_found","error_description":"no such record"}`, rec.Body.String())
	})

	t.Run("unavailable omits the description", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httputil.WriteError(rec, dErrors.New(dErrors.CodeUnavailable, "redis down at 10.0.0.3"))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.JSONEq(t, `{"error":"unavailable"}`, rec.Body.String())
	})

	t.Run("uncoded errors fall back to internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httputil.WriteError(rec, errors.New("boom"))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.JSONEq(t, `{"error":"internal_error"}`, rec.Body.String())
	})

	t.Run("wrapped coded errors keep their code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		inner := dErrors.New(dErrors.CodeConflict, "concurrent version conflict")
		httputil.WriteError(rec, dErrors.Wrap(inner, dErrors.CodeConflict, "create version"))

		require.Equal(t, http.StatusConflict, rec.Code)
	})
}
