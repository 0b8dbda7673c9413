package handlers

import (
	"net/http"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
	"github.com/nkiryanov/gatekeeper/internal/handlers/render"
	"github.com/nkiryanov/gatekeeper/internal/handlers/userctx"
	"github.com/nkiryanov/gatekeeper/internal/logger"
	"github.com/nkiryanov/gatekeeper/internal/models"
)

// Pages behind the session gate. Rendering is up to the frontend, here is the data only

func handleLoginPage() http.Handler {
	type response struct {
		Status string `json:"status"`
		Page   string `json:"page"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		render.JSON(w, response{Status: render.StatusOK, Page: "login"})
	})
}

func handleAdmin(l logger.Logger) http.Handler {
	type response struct {
		Status  string      `json:"status"`
		Subject string      `json:"subject"`
		Email   string      `json:"email"`
		Role    models.Role `json:"role"`
	}

	return withErrors(l, func(w http.ResponseWriter, r *http.Request) error {
		// Gate puts verified claims to every admin request, none means the page is served unguarded
		claims, ok := userctx.FromContext(r.Context())
		if !ok {
			return apperrors.NewUnauthorized("", "", nil)
		}

		render.JSON(w, response{
			Status:  render.StatusOK,
			Subject: claims.Subject,
			Email:   claims.Email,
			Role:    claims.Role,
		})
		return nil
	})
}
