package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
	"github.com/nkiryanov/gatekeeper/internal/models"
)

const (
	defaultAccessCookieName  = "access_token"
	defaultRefreshCookieName = "refresh_token"
	defaultMinFailureTime    = 10 * time.Millisecond
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type userService interface {
	// Must return apperrors.ErrUserNotFound or apperrors.ErrPasswordMismatch on bad credentials
	Authenticate(ctx context.Context, email string, password string) (models.User, error)

	// Must return apperrors.ErrUserNotFound if there is no such user
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type tokenManager interface {
	GeneratePair(user models.User) (models.TokenPair, error)
	Verify(value string, kind models.TokenKind) (models.SessionClaims, error)
}

type Config struct {
	AccessCookieName  string
	RefreshCookieName string

	// Set 'Secure' attribute on cookies. Production only, browsers drop such cookies on plain http
	SecureCookies bool

	// Failed login never answers faster than that
	MinFailureDuration time.Duration

	// Hasher for dummy work on fast login failures
	Hasher PasswordHasher
}

// Auth service issues sessions: token pairs by credentials or by refresh token
type AuthService struct {
	tokenManager tokenManager
	userService  userService
	hasher       PasswordHasher

	accessCookieName  string
	refreshCookieName string
	secureCookies     bool

	minFailureDuration time.Duration
}

func NewService(cfg Config, tokenManager tokenManager, userService userService) (*AuthService, error) {
	if tokenManager == nil || userService == nil {
		return nil, errors.New("token manager and user service must not be nil")
	}

	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&cfg.AccessCookieName, defaultAccessCookieName)
	setDefault(&cfg.RefreshCookieName, defaultRefreshCookieName)

	if cfg.AccessCookieName == cfg.RefreshCookieName {
		return nil, fmt.Errorf("access and refresh cookies must have different names, got %q", cfg.AccessCookieName)
	}

	if cfg.MinFailureDuration == 0 {
		cfg.MinFailureDuration = defaultMinFailureTime
	}
	if cfg.Hasher == nil {
		cfg.Hasher = DefaultHasher
	}

	return &AuthService{
		tokenManager:       tokenManager,
		userService:        userService,
		hasher:             cfg.Hasher,
		accessCookieName:   cfg.AccessCookieName,
		refreshCookieName:  cfg.RefreshCookieName,
		secureCookies:      cfg.SecureCookies,
		minFailureDuration: cfg.MinFailureDuration,
	}, nil
}

// Login user with email and password
// Bad credentials of any sort are reported as apperrors.ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	startedAt := time.Now()

	user, err := s.userService.Authenticate(ctx, email, password)
	if err != nil {
		s.padFailure(ctx, startedAt)

		if errors.Is(err, apperrors.ErrUserNotFound) || errors.Is(err, apperrors.ErrPasswordMismatch) {
			return models.TokenPair{}, apperrors.ErrInvalidCredentials
		}
		return models.TokenPair{}, fmt.Errorf("error while authenticating user. Err: %w", err)
	}

	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, nil
}

// Refresh rotates the pair. User is fetched again so new access token has actual email and role
// Any failure is reported as apperrors.ErrInvalidRefreshToken
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	claims, err := s.tokenManager.Verify(refresh, models.TokenKindRefresh)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidRefreshToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: subject is not user id: %w", apperrors.ErrInvalidRefreshToken, err)
	}

	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidRefreshToken, err)
	}

	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidRefreshToken, err)
	}

	return pair, nil
}

// Cookies to deliver the pair to the client
func (s *AuthService) Cookies(pair models.TokenPair) []*http.Cookie {
	return []*http.Cookie{
		s.cookie(s.accessCookieName, pair.Access.Value),
		s.cookie(s.refreshCookieName, pair.Refresh.Value),
	}
}

// Set auth tokens (access, refresh) to response
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	for _, c := range s.Cookies(pair) {
		http.SetCookie(w, c)
	}
}

// Set auth tokens to request as browser does it
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	for _, c := range s.Cookies(pair) {
		r.AddCookie(c)
	}
}

// Get refresh token from request
// If there is no one return apperrors.ErrNoRefreshToken
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.ErrNoRefreshToken
	}

	return cookie.Value, nil
}

func (s *AuthService) AccessCookieName() string  { return s.accessCookieName }
func (s *AuthService) RefreshCookieName() string { return s.refreshCookieName }
func (s *AuthService) SecureCookies() bool       { return s.secureCookies }

func (s *AuthService) cookie(name string, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
	}
}

// padFailure makes failures as slow as a bcrypt comparison so lookup miss and password mismatch look the same
func (s *AuthService) padFailure(ctx context.Context, startedAt time.Time) {
	if time.Since(startedAt) >= s.minFailureDuration {
		return
	}

	_, _ = s.hasher.Hash("password")

	remaining := s.minFailureDuration - time.Since(startedAt)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
