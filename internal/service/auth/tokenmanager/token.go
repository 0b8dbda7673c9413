package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
	"github.com/nkiryanov/gatekeeper/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 24 * time.Hour
)

type sessionClaims struct {
	jwt.RegisteredClaims
	Kind  models.TokenKind `json:"typ"`
	Email string           `json:"email,omitempty"`
	Role  models.Role      `json:"role,omitempty"`
}

// Token manager with sensible default
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock, time.Now if not set
	Now func() time.Time
}

type TokenManager struct {
	key []byte

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg, ok := jwt.GetSigningMethod(cfg.Alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("signing method %q is not supported, use symmetric HMAC one", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		key:        []byte(cfg.SecretKey),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

// Issue signs new token of the kind for the subject
// Email and role are put to access tokens only: refresh tokens carry subject alone
func (m *TokenManager) Issue(kind models.TokenKind, subject string, email string, role models.Role) (models.IssuedToken, error) {
	var ttl time.Duration
	switch kind {
	case models.TokenKindAccess:
		ttl = m.accessTTL
	case models.TokenKindRefresh:
		ttl = m.refreshTTL
		email, role = "", ""
	default:
		return models.IssuedToken{}, fmt.Errorf("unknown token kind %q", kind)
	}

	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		m.alg,
		sessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   subject,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Kind:  kind,
			Email: email,
			Role:  role,
		},
	)

	value, err := token.SignedString(m.key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing %s token. Err: %w", kind, err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// GeneratePair issues access and refresh tokens for the user
func (m *TokenManager) GeneratePair(user models.User) (models.TokenPair, error) {
	subject := user.ID.String()

	access, err := m.Issue(models.TokenKindAccess, subject, user.Email, user.Role)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := m.Issue(models.TokenKindRefresh, subject, "", "")
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify checks signature, expiration and kind of the token
// Token is valid strictly before its expiration instant
// Every failure wraps apperrors.ErrTokenInvalid, expired tokens wrap apperrors.ErrTokenExpired as well
func (m *TokenManager) Verify(value string, kind models.TokenKind) (models.SessionClaims, error) {
	claims := &sessionClaims{}

	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.SessionClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, apperrors.ErrTokenExpired)
	case err != nil:
		return models.SessionClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	if claims.Kind != kind {
		return models.SessionClaims{}, fmt.Errorf("%w: expected %s token, got %q", apperrors.ErrTokenInvalid, kind, claims.Kind)
	}
	if claims.Subject == "" {
		return models.SessionClaims{}, fmt.Errorf("%w: token has no subject", apperrors.ErrTokenInvalid)
	}

	result := models.SessionClaims{
		ID:        claims.ID,
		Kind:      claims.Kind,
		Subject:   claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}

	return result, nil
}
