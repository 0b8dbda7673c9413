package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
	"github.com/nkiryanov/gatekeeper/internal/logger"
)

func Test_withErrors(t *testing.T) {
	serve := func(fn handlerFunc) (*httptest.ResponseRecorder, *observer.ObservedLogs) {
		core, logs := observer.New(zapcore.DebugLevel)
		rec := httptest.NewRecorder()
		withErrors(logger.FromZap(zap.New(core)), fn).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		return rec, logs
	}

	t.Run("unknown error is internal", func(t *testing.T) {
		rec, logs := serve(func(http.ResponseWriter, *http.Request) error {
			return errors.New("db is on fire")
		})

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		envelope := errorBody(t, rec.Body.String())
		require.Equal(t, map[string]any{
			"status":  "error",
			"error":   "InternalServerError",
			"message": "An unexpected internal error occurred.",
			"action":  "Please contact support with the 'error_id' value.",
		}, envelope)
		require.NotContains(t, rec.Body.String(), "db is on fire", "details stay in the log")

		entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
		require.Len(t, entries, 1)
		require.NotEmpty(t, entries[0].ContextMap()["error_id"])
	})

	t.Run("panic is internal", func(t *testing.T) {
		rec, logs := serve(func(http.ResponseWriter, *http.Request) error {
			panic("unexpected")
		})

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "InternalServerError", errorBody(t, rec.Body.String())["error"])
		require.Equal(t, 1, logs.FilterMessage("panic while handling request").Len())
	})

	t.Run("app error rendered as is", func(t *testing.T) {
		rec, logs := serve(func(http.ResponseWriter, *http.Request) error {
			return apperrors.NewUnauthorized("", "", nil)
		})

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, map[string]any{
			"status":  "error",
			"error":   "UnauthorizedError",
			"message": "User is not authenticated.",
			"action":  "Please check if you are authenticated with an active session and try again.",
		}, errorBody(t, rec.Body.String()))
		require.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	})

	t.Run("abort panic is not swallowed", func(t *testing.T) {
		require.PanicsWithValue(t, http.ErrAbortHandler, func() {
			serve(func(http.ResponseWriter, *http.Request) error {
				panic(http.ErrAbortHandler)
			})
		})
	})
}
