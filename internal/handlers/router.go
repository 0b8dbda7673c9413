package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/gatekeeper/internal/handlers/middleware"
	"github.com/nkiryanov/gatekeeper/internal/logger"
	"github.com/nkiryanov/gatekeeper/internal/models"
)

const APIPrefix = "/api/v1"

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter mounts session API under APIPrefix and pages behind the gate
func NewRouter(
	authService authService,
	gate func(next http.Handler) http.Handler,
	logger logger.Logger,
) http.Handler {
	api := http.NewServeMux()

	api.Handle("POST /session", handleLogin(authService, logger))
	api.Handle("GET /session", handleStatus())
	api.Handle("POST /session/refresh", handleTokenRefresh(authService, logger))
	api.Handle("GET /status", handleStatus())

	pages := http.NewServeMux()
	pages.Handle("GET /login", handleLoginPage())
	pages.Handle("GET /admin", handleAdmin(logger))
	pages.Handle("GET /admin/", handleAdmin(logger))

	root := http.NewServeMux()
	root.Handle(APIPrefix+"/", http.StripPrefix(APIPrefix, api))
	root.Handle("/", gate(pages))

	handler := chain(root,
		middleware.RequestLogger(logger),
	)

	return handler
}

type authService interface {
	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials if email or password is wrong
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// Has to return apperrors.ErrInvalidRefreshToken on any token or user problem
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request
	// Has to return apperrors.ErrNoRefreshToken if there is no one
	GetRefreshString(r *http.Request) (string, error)
}
