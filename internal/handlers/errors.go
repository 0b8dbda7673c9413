package handlers

import (
	"fmt"
	"net/http"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
	"github.com/nkiryanov/gatekeeper/internal/handlers/render"
	"github.com/nkiryanov/gatekeeper/internal/logger"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// withErrors is the only place where errors become responses
// Unknown errors and panics are reported as InternalServerError, the details go to the log only
func withErrors(l logger.Logger, fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				appErr := apperrors.NewInternalServerError(fmt.Errorf("panic: %v", rec))
				l.Error("panic while handling request", "error_id", appErr.ErrorID, "uri", r.RequestURI, "error", appErr.Err)
				render.Error(w, appErr)
			}
		}()

		err := fn(w, r)
		if err == nil {
			return
		}

		appErr := apperrors.From(err)
		if appErr.StatusCode >= http.StatusInternalServerError {
			l.Error("request failed", "error_id", appErr.ErrorID, "uri", r.RequestURI, "error", err)
		} else {
			l.Debug("request rejected", "error_id", appErr.ErrorID, "uri", r.RequestURI, "error", err)
		}
		render.Error(w, appErr)
	})
}
