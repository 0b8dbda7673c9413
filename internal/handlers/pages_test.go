package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/gatekeeper/internal/handlers/userctx"
	"github.com/nkiryanov/gatekeeper/internal/logger"
	"github.com/nkiryanov/gatekeeper/internal/models"
)

func Test_Pages(t *testing.T) {
	t.Parallel()

	app := startApp(t)

	loginSession := func(t *testing.T) response {
		resp := do(t, http.MethodPost, app.URL+APIPrefix+"/session", `{"username": "admin@example.com", "password": "admin"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return resp
	}

	t.Run("login page without session", func(t *testing.T) {
		resp := do(t, http.MethodGet, app.URL+"/login", "")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.JSONEq(t, `{"status": "ok", "page": "login"}`, resp.Body)
	})

	t.Run("admin without session goes to login", func(t *testing.T) {
		resp := do(t, http.MethodGet, app.URL+"/admin/users", "")

		require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
		require.Equal(t, "/login", resp.Header.Get("Location"))
		require.Less(t, resp.Cookies["access_token"].MaxAge, 0)
		require.Less(t, resp.Cookies["refresh_token"].MaxAge, 0)
	})

	t.Run("admin with session shows identity", func(t *testing.T) {
		session := loginSession(t)

		resp := do(t, http.MethodGet, app.URL+"/admin", "", sessionCookies(session)...)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", resp.Body)
		require.JSONEq(t, `{
			"status": "ok",
			"subject": "`+app.Admin.ID.String()+`",
			"email": "admin@example.com",
			"role": "ADMIN"
		}`, resp.Body)
	})

	t.Run("login page with session goes to admin", func(t *testing.T) {
		session := loginSession(t)

		resp := do(t, http.MethodGet, app.URL+"/login", "", sessionCookies(session)...)

		require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
		require.Equal(t, "/admin", resp.Header.Get("Location"))
	})

	t.Run("admin with refresh token only renews in process", func(t *testing.T) {
		session := loginSession(t)

		resp := do(t, http.MethodGet, app.URL+"/admin/", "", &http.Cookie{Name: "refresh_token", Value: session.Cookies["refresh_token"].Value})

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", resp.Body)
		require.NotEmpty(t, resp.Cookies["access_token"].Value)
		require.NotEmpty(t, resp.Cookies["refresh_token"].Value)
		require.Contains(t, resp.Body, app.Admin.ID.String())
	})

	t.Run("not gated path is not found", func(t *testing.T) {
		resp := do(t, http.MethodGet, app.URL+"/administrator", "")

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func Test_handleAdmin(t *testing.T) {
	t.Run("without session claims", func(t *testing.T) {
		rec := httptest.NewRecorder()

		handleAdmin(logger.NewNoOpLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, map[string]any{
			"status":  "error",
			"error":   "UnauthorizedError",
			"message": "User is not authenticated.",
			"action":  "Please check if you are authenticated with an active session and try again.",
		}, errorBody(t, rec.Body.String()))
	})

	t.Run("with session claims", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req = req.WithContext(userctx.New(req.Context(), models.SessionClaims{
			Subject: "7d3c1a52-5f0e-4c38-9a57-0f3f4d1b2c6e",
			Email:   "admin@example.com",
			Role:    models.RoleAdmin,
		}))

		handleAdmin(logger.NewNoOpLogger()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{
			"status": "ok",
			"subject": "7d3c1a52-5f0e-4c38-9a57-0f3f4d1b2c6e",
			"email": "admin@example.com",
			"role": "ADMIN"
		}`, rec.Body.String())
	})
}
