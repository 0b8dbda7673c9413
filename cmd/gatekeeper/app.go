package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkiryanov/gatekeeper/internal/db"
	"github.com/nkiryanov/gatekeeper/internal/handlers"
	"github.com/nkiryanov/gatekeeper/internal/handlers/middleware"
	"github.com/nkiryanov/gatekeeper/internal/logger"
	"github.com/nkiryanov/gatekeeper/internal/repository/postgres"
	"github.com/nkiryanov/gatekeeper/internal/service/auth"
	"github.com/nkiryanov/gatekeeper/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/gatekeeper/internal/service/refresh"
	"github.com/nkiryanov/gatekeeper/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
	pool   *pgxpool.Pool
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	secure := c.Environment == logger.EnvProduction

	userService := user.NewService(auth.DefaultHasher, storage.User())
	authService, err := auth.NewService(auth.Config{
		AccessCookieName:  c.AccessCookieName,
		RefreshCookieName: c.RefreshCookieName,
		SecureCookies:     secure,
	}, tokenManager, userService)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	// Gate renews sessions over HTTP when refresh endpoint is configured
	var refresher refresh.Refresher
	if c.RefreshURL != "" {
		refresher = refresh.NewClient(c.RefreshURL, c.RefreshCookieName, c.RefreshTimeout, l.WithGroup("refresh"))
	} else {
		refresher = refresh.NewLocal(authService)
	}

	gate, err := middleware.NewGate(middleware.GateConfig{
		AccessCookieName:  c.AccessCookieName,
		RefreshCookieName: c.RefreshCookieName,
		SecureCookies:     secure,
		RenewTimeout:      c.RefreshTimeout,
	}, tokenManager, refresher, l.WithGroup("gate"))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating session gate. Err: %w", err)
	}

	mux := handlers.NewRouter(authService, gate.Middleware, l)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     l,
		pool:       pool,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.pool.Close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
