package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/gatekeeper/internal/models"
)

func Test_SessionHandlers(t *testing.T) {
	t.Parallel()

	app := startApp(t)
	login := app.URL + APIPrefix + "/session"
	refreshURL := app.URL + APIPrefix + "/session/refresh"

	t.Run("login ok", func(t *testing.T) {
		resp := do(t, http.MethodPost, login, `{"username": "admin@example.com", "password": "admin"}`)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", resp.Body)
		require.JSONEq(t, `{"status": "ok"}`, resp.Body)

		require.Len(t, resp.Cookies, 2)
		for _, name := range []string{"access_token", "refresh_token"} {
			c := resp.Cookies[name]
			require.NotNil(t, c, "cookie %s should be set", name)
			require.NotEmpty(t, c.Value)
			require.True(t, c.HttpOnly, "cookie should be HttpOnly")
			require.Equal(t, "/", c.Path)
			require.False(t, c.Secure, "cookies are not secure outside production")
			require.Zero(t, c.MaxAge, "session cookies have no Max-Age")
		}

		claims, err := app.Tokens.Verify(resp.Cookies["access_token"].Value, models.TokenKindAccess)
		require.NoError(t, err)
		require.Equal(t, app.Admin.ID.String(), claims.Subject)
		require.Equal(t, adminEmail, claims.Email)
		require.Equal(t, models.RoleAdmin, claims.Role)

		refreshClaims, err := app.Tokens.Verify(resp.Cookies["refresh_token"].Value, models.TokenKindRefresh)
		require.NoError(t, err)
		require.Equal(t, app.Admin.ID.String(), refreshClaims.Subject)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		for _, body := range []string{
			`{"username": "admin@example.com", "password": "wrong"}`,
			`{"username": "nobody@example.com", "password": "admin"}`,
		} {
			start := time.Now()
			resp := do(t, http.MethodPost, login, body)
			elapsed := time.Since(start)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", resp.Body)
			require.Equal(t, map[string]any{
				"status":  "error",
				"error":   "UnauthorizedError",
				"message": "Username or password is incorrect.",
				"action":  "Please check your username and password and try again.",
			}, errorBody(t, resp.Body))
			require.Empty(t, resp.Cookies, "no cookies on failed login")
			require.GreaterOrEqual(t, elapsed, 10*time.Millisecond, "failure must not be faster than the floor")
		}
	})

	t.Run("login validation", func(t *testing.T) {
		tests := []struct {
			name     string
			body     string
			messages []any
		}{
			{
				name:     "empty body",
				body:     "",
				messages: []any{"Field 'username' is required.", "Field 'password' is required."},
			},
			{
				name:     "empty strings",
				body:     `{"username": "", "password": ""}`,
				messages: []any{"Field 'username' is required.", "Field 'password' is required."},
			},
			{
				name:     "bad email",
				body:     `{"username": "admin", "password": "admin"}`,
				messages: []any{"Field 'username' must be a valid email address."},
			},
			{
				name:     "wrong type",
				body:     `{"username": "admin@example.com", "password": 42}`,
				messages: []any{"Field 'password' must be a string."},
			},
			{
				name:     "wrong type and missing field",
				body:     `{"username": 123}`,
				messages: []any{"Field 'username' must be a string.", "Field 'password' is required."},
			},
			{
				name:     "malformed json",
				body:     `{"username": `,
				messages: []any{"Request body must be valid JSON."},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp := do(t, http.MethodPost, login, tt.body)

				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", resp.Body)
				envelope := errorBody(t, resp.Body)
				require.Equal(t, "BadRequestError", envelope["error"])
				require.Equal(t, tt.messages, envelope["message"])
				require.NotContains(t, envelope, "action")
				require.Empty(t, resp.Cookies)
			})
		}
	})

	t.Run("refresh ok", func(t *testing.T) {
		session := do(t, http.MethodPost, login, `{"username": "admin@example.com", "password": "admin"}`)
		require.Equal(t, http.StatusOK, session.StatusCode)

		resp := do(t, http.MethodPost, refreshURL, "", &http.Cookie{Name: "refresh_token", Value: session.Cookies["refresh_token"].Value})

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", resp.Body)
		require.JSONEq(t, `{"status": "ok"}`, resp.Body)
		require.Len(t, resp.Cookies, 2)

		claims, err := app.Tokens.Verify(resp.Cookies["access_token"].Value, models.TokenKindAccess)
		require.NoError(t, err)
		require.Equal(t, app.Admin.ID.String(), claims.Subject)
		require.Equal(t, models.RoleAdmin, claims.Role, "role is read from the store again")
	})

	t.Run("refresh without token", func(t *testing.T) {
		resp := do(t, http.MethodPost, refreshURL, "")

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, map[string]any{
			"status":  "error",
			"error":   "UnauthorizedError",
			"message": "No refresh token.",
			"action":  "Please provide a valid refresh token.",
		}, errorBody(t, resp.Body))
	})

	t.Run("refresh with bad token", func(t *testing.T) {
		session := do(t, http.MethodPost, login, `{"username": "admin@example.com", "password": "admin"}`)
		require.Equal(t, http.StatusOK, session.StatusCode)

		for name, value := range map[string]string{
			"garbage":      "not-a-token",
			"access token": session.Cookies["access_token"].Value,
		} {
			t.Run(name, func(t *testing.T) {
				resp := do(t, http.MethodPost, refreshURL, "", &http.Cookie{Name: "refresh_token", Value: value})

				require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				require.Equal(t, map[string]any{
					"status":  "error",
					"error":   "UnauthorizedError",
					"message": "Invalid refresh token.",
					"action":  "Please provide a valid refresh token.",
				}, errorBody(t, resp.Body))
				require.Empty(t, resp.Cookies)
			})
		}
	})

	t.Run("status probes", func(t *testing.T) {
		for _, path := range []string{"/status", "/session"} {
			resp := do(t, http.MethodGet, app.URL+APIPrefix+path, "")

			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.JSONEq(t, `{"status": "ok"}`, resp.Body)
		}
	})
}
