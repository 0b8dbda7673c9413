package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/gatekeeper/internal/handlers/middleware"
	"github.com/nkiryanov/gatekeeper/internal/logger"
	"github.com/nkiryanov/gatekeeper/internal/models"
	"github.com/nkiryanov/gatekeeper/internal/service/auth"
	"github.com/nkiryanov/gatekeeper/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/gatekeeper/internal/service/refresh"
	"github.com/nkiryanov/gatekeeper/internal/service/user"
	"github.com/nkiryanov/gatekeeper/internal/testutil"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin"
)

type testApp struct {
	URL    string
	Admin  models.User
	Tokens *tokenmanager.TokenManager
	Auth   *auth.AuthService
}

// startApp runs production router with in memory user store
// Redirects are not followed so gate answers can be checked as is
func startApp(t *testing.T) *testApp {
	t.Helper()

	hasher := auth.BcryptHasher{Cost: bcrypt.MinCost}
	users := user.NewService(hasher, testutil.NewUserRepo())

	admin, err := users.CreateUser(context.Background(), models.User{Email: adminEmail, Role: models.RoleAdmin}, adminPassword)
	require.NoError(t, err)

	tokens, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  "test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)

	authService, err := auth.NewService(auth.Config{Hasher: hasher}, tokens, users)
	require.NoError(t, err)

	gate, err := middleware.NewGate(middleware.GateConfig{
		AccessCookieName:  authService.AccessCookieName(),
		RefreshCookieName: authService.RefreshCookieName(),
	}, tokens, refresh.NewLocal(authService), logger.NewNoOpLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(authService, gate.Middleware, logger.NewNoOpLogger()))
	t.Cleanup(srv.Close)

	return &testApp{URL: srv.URL, Admin: admin, Tokens: tokens, Auth: authService}
}

var noRedirects = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

type response struct {
	StatusCode int
	Body       string
	Cookies    map[string]*http.Cookie
	Header     http.Header
}

func do(t *testing.T, method string, url string, body string, cookies ...*http.Cookie) response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := noRedirects.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	byName := make(map[string]*http.Cookie)
	for _, c := range resp.Cookies() {
		byName[c.Name] = c
	}

	return response{StatusCode: resp.StatusCode, Body: string(data), Cookies: byName, Header: resp.Header}
}

// errorBody decodes error envelope, error_id is checked and dropped as it is random
func errorBody(t *testing.T, body string) map[string]any {
	t.Helper()

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &envelope), "body should be JSON: %s", body)

	require.Equal(t, "error", envelope["status"])
	require.NotEmpty(t, envelope["error_id"], "error_id has to be set")
	delete(envelope, "error_id")

	return envelope
}

func sessionCookies(resp response) []*http.Cookie {
	return []*http.Cookie{
		{Name: "access_token", Value: resp.Cookies["access_token"].Value},
		{Name: "refresh_token", Value: resp.Cookies["refresh_token"].Value},
	}
}
