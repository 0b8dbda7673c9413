package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
	"github.com/nkiryanov/gatekeeper/internal/handlers/render"
	"github.com/nkiryanov/gatekeeper/internal/logger"
)

const (
	loginFailedMessage = "Username or password is incorrect."
	loginFailedAction  = "Please check your username and password and try again."

	noRefreshMessage      = "No refresh token."
	invalidRefreshMessage = "Invalid refresh token."
	refreshAction         = "Please provide a valid refresh token."
)

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return withErrors(l, func(w http.ResponseWriter, r *http.Request) error {
		data, err := render.BindAndValidate[request](r)
		if err != nil {
			return err
		}

		pair, err := authService.Login(r.Context(), data.Username, data.Password)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidCredentials) {
				return apperrors.NewUnauthorized(loginFailedMessage, loginFailedAction, err)
			}
			return err
		}

		authService.SetTokenPairToResponse(w, pair)
		render.OK(w)
		return nil
	})
}

func handleTokenRefresh(authService authService, l logger.Logger) http.Handler {
	return withErrors(l, func(w http.ResponseWriter, r *http.Request) error {
		refresh, err := authService.GetRefreshString(r)
		if err != nil {
			return apperrors.NewUnauthorized(noRefreshMessage, refreshAction, err)
		}

		pair, err := authService.Refresh(r.Context(), refresh)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidRefreshToken) {
				return apperrors.NewUnauthorized(invalidRefreshMessage, refreshAction, err)
			}
			return err
		}

		authService.SetTokenPairToResponse(w, pair)
		render.OK(w)
		return nil
	})
}

func handleStatus() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		render.OK(w)
	})
}
