package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/gatekeeper/internal/handlers/userctx"
	"github.com/nkiryanov/gatekeeper/internal/models"
)

const (
	defaultLoginPath    = "/login"
	defaultAdminPath    = "/admin"
	defaultRenewTimeout = 5 * time.Second
)

type tokenVerifier interface {
	Verify(value string, kind models.TokenKind) (models.SessionClaims, error)
}

// Exchanges refresh token to the new pair delivered as cookies
type refresher interface {
	Refresh(ctx context.Context, refreshToken string) ([]*http.Cookie, error)
}

type gateLogger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

type GateConfig struct {
	// Login page. Authenticated users are sent away from it to AdminPath
	LoginPath string

	// Landing page for authenticated users
	AdminPath string

	// Paths that require session: the prefix itself and everything below it
	// AdminPath if empty
	ProtectedPrefixes []string

	AccessCookieName  string
	RefreshCookieName string
	SecureCookies     bool

	// Bound for single silent renewal
	RenewTimeout time.Duration
}

// Gate decides for every page request: pass it, send to admin page or send to login page
// It keeps no state between requests
type Gate struct {
	cfg       GateConfig
	tokens    tokenVerifier
	refresher refresher
	logger    gateLogger
}

func NewGate(cfg GateConfig, tokens tokenVerifier, refresher refresher, l gateLogger) (*Gate, error) {
	if tokens == nil || refresher == nil || l == nil {
		return nil, fmt.Errorf("gate dependencies must not be nil")
	}
	if cfg.AccessCookieName == "" || cfg.RefreshCookieName == "" {
		return nil, fmt.Errorf("gate needs both cookie names")
	}

	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginPath
	}
	if cfg.AdminPath == "" {
		cfg.AdminPath = defaultAdminPath
	}
	if len(cfg.ProtectedPrefixes) == 0 {
		cfg.ProtectedPrefixes = []string{cfg.AdminPath}
	}
	if cfg.RenewTimeout == 0 {
		cfg.RenewTimeout = defaultRenewTimeout
	}

	return &Gate{cfg: cfg, tokens: tokens, refresher: refresher, logger: l}, nil
}

type outcome int

const (
	outcomeAllow outcome = iota
	outcomeToAdmin
	outcomeToLogin
)

type decision struct {
	outcome outcome

	// Verified access claims, set when access token is known to be good
	claims *models.SessionClaims

	// Cookies issued by silent renewal
	renewed []*http.Cookie

	// Clear both cookies without redirect
	clear bool

	reason string
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.matches(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		d := g.evaluate(r)

		switch d.outcome {
		case outcomeToLogin:
			g.logger.Info("session gate sends request to login", "path", r.URL.Path, "reason", d.reason)
			g.clearCookies(w)
			http.Redirect(w, r, g.cfg.LoginPath, http.StatusTemporaryRedirect)

		case outcomeToAdmin:
			setCookies(w, d.renewed)
			http.Redirect(w, r, g.cfg.AdminPath, http.StatusTemporaryRedirect)

		default:
			if d.clear {
				g.logger.Debug("session gate cleared stale cookies", "path", r.URL.Path, "reason", d.reason)
				g.clearCookies(w)
			}
			setCookies(w, d.renewed)
			next.ServeHTTP(w, g.forward(r, d))
		}
	})
}

// evaluate is the state machine over path and two cookies
func (g *Gate) evaluate(r *http.Request) decision {
	path := r.URL.Path
	protected := g.isProtected(path)

	access := cookieValue(r, g.cfg.AccessCookieName)
	if access == "" {
		if !protected {
			return decision{outcome: outcomeAllow}
		}
		return g.renew(r, "no access token")
	}

	claims, err := g.tokens.Verify(access, models.TokenKindAccess)
	if err == nil {
		if path == g.cfg.LoginPath {
			return decision{outcome: outcomeToAdmin}
		}
		return decision{outcome: outcomeAllow, claims: &claims}
	}

	d := g.renew(r, fmt.Sprintf("access token rejected: %v", err))
	if protected {
		return d
	}

	// Login page with stale session: logged in again silently or show the page without stale cookies
	switch d.outcome {
	case outcomeAllow:
		return decision{outcome: outcomeToAdmin, renewed: d.renewed}
	default:
		return decision{outcome: outcomeAllow, clear: true, reason: d.reason}
	}
}

// renew exchanges refresh token for the new pair
// Anything unexpected means redirect to login, never pass unverified credentials
func (g *Gate) renew(r *http.Request, why string) (d decision) {
	defer func() {
		if rec := recover(); rec != nil {
			d = denied(fmt.Sprintf("%s; renewal panicked: %v", why, rec))
		}
	}()

	refresh := cookieValue(r, g.cfg.RefreshCookieName)
	if refresh == "" {
		return denied(why + "; no refresh token")
	}

	if _, err := g.tokens.Verify(refresh, models.TokenKindRefresh); err != nil {
		return denied(fmt.Sprintf("%s; refresh token rejected: %v", why, err))
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.RenewTimeout)
	defer cancel()

	cookies, err := g.refresher.Refresh(ctx, refresh)
	if err != nil {
		return denied(fmt.Sprintf("%s; renewal failed: %v", why, err))
	}

	var renewedAccess string
	for _, c := range cookies {
		if c.Name == g.cfg.AccessCookieName {
			renewedAccess = c.Value
		}
	}
	if renewedAccess == "" {
		return denied(why + "; renewal returned no access token")
	}

	claims, err := g.tokens.Verify(renewedAccess, models.TokenKindAccess)
	if err != nil {
		return denied(fmt.Sprintf("%s; renewed access token rejected: %v", why, err))
	}

	return decision{outcome: outcomeAllow, claims: &claims, renewed: cookies}
}

func denied(reason string) decision {
	return decision{outcome: outcomeToLogin, reason: reason}
}

// forward puts verified claims to context and renewed cookies instead of the old ones
func (g *Gate) forward(r *http.Request, d decision) *http.Request {
	if d.claims == nil && len(d.renewed) == 0 && !d.clear {
		return r
	}

	ctx := r.Context()
	if d.claims != nil {
		ctx = userctx.New(ctx, *d.claims)
	}
	out := r.Clone(ctx)

	if len(d.renewed) > 0 || d.clear {
		replaced := make(map[string]bool, len(d.renewed)+2)
		for _, c := range d.renewed {
			replaced[c.Name] = true
		}
		if d.clear {
			replaced[g.cfg.AccessCookieName] = true
			replaced[g.cfg.RefreshCookieName] = true
		}

		out.Header.Del("Cookie")
		for _, c := range r.Cookies() {
			if !replaced[c.Name] {
				out.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
			}
		}
		for _, c := range d.renewed {
			out.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}

	return out
}

func (g *Gate) matches(path string) bool {
	return path == g.cfg.LoginPath || g.isProtected(path)
}

func (g *Gate) isProtected(path string) bool {
	for _, prefix := range g.cfg.ProtectedPrefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

func (g *Gate) clearCookies(w http.ResponseWriter) {
	for _, name := range []string{g.cfg.AccessCookieName, g.cfg.RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   g.cfg.SecureCookies,
		})
	}
}

func setCookies(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
