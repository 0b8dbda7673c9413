package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nkiryanov/gatekeeper/internal/logger"
)

const (
	CodeRejected    = "rejected"
	CodeUnavailable = "unavailable"
	CodeUnknown     = "unknown"
)

const defaultTimeout = 5 * time.Second

// Refresher exchanges refresh token for the new session cookies
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) ([]*http.Cookie, error)
}

type RefreshError struct {
	Code string

	StatusCode int
	Err        error
}

func (re *RefreshError) Error() string {
	return fmt.Sprintf("code: %s, status_code: %d, error: %v", re.Code, re.StatusCode, re.Err)
}

func (re *RefreshError) Unwrap() error {
	return re.Err
}

func NewRefreshError(code string, statusCode int, err error) *RefreshError {
	return &RefreshError{
		Code:       code,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Client renews session calling refresh endpoint over HTTP
// Only the refresh cookie is forwarded, answer cookies are returned as is
type Client struct {
	RefreshURL string
	CookieName string

	client  *http.Client
	timeout time.Duration
	logger  logger.Logger
}

func NewClient(refreshURL string, cookieName string, timeout time.Duration, l logger.Logger) *Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		RefreshURL: refreshURL,
		CookieName: cookieName,
		client: &http.Client{
			// Redirect is not a renewal
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
		logger:  l,
	}
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) ([]*http.Cookie, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RefreshURL, nil)
	if err != nil {
		return nil, NewRefreshError(CodeUnknown, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.AddCookie(&http.Cookie{Name: c.CookieName, Value: refreshToken})

	resp, err := c.client.Do(req)
	if err != nil {
		code := CodeUnknown
		if errors.Is(err, context.DeadlineExceeded) {
			code = CodeUnavailable
		}
		return nil, NewRefreshError(code, 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.logger.Debug("Session renewed", "status_code", resp.StatusCode)
		return resp.Cookies(), nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, NewRefreshError(CodeRejected, resp.StatusCode, errors.New("refresh token rejected"))
	case resp.StatusCode >= 500:
		c.logger.Warn("Refresh endpoint failed", "status_code", resp.StatusCode)
		return nil, NewRefreshError(CodeUnavailable, resp.StatusCode, fmt.Errorf("refresh endpoint answered %d", resp.StatusCode))
	default:
		c.logger.Warn("Unexpected refresh answer", "status_code", resp.StatusCode)
		return nil, NewRefreshError(CodeUnknown, resp.StatusCode, fmt.Errorf("unknown status code %d", resp.StatusCode))
	}
}
