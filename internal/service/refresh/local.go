package refresh

import (
	"context"
	"net/http"

	"github.com/nkiryanov/gatekeeper/internal/models"
)

type sessionIssuer interface {
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)
	Cookies(pair models.TokenPair) []*http.Cookie
}

// Local renews session in process: same cookies as the refresh endpoint sets, without network hop
type Local struct {
	issuer sessionIssuer
}

func NewLocal(issuer sessionIssuer) *Local {
	return &Local{issuer: issuer}
}

func (l *Local) Refresh(ctx context.Context, refreshToken string) ([]*http.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRefreshError(CodeUnavailable, 0, err)
	}

	pair, err := l.issuer.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, NewRefreshError(CodeRejected, http.StatusUnauthorized, err)
	}

	return l.issuer.Cookies(pair), nil
}
