package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/gatekeeper/internal/logger"
)

const (
	defaultListenAddr     = "localhost:3000"
	defaultLoggingLevel   = logger.LevelInfo
	defaultEnvironment    = logger.EnvProduction
	defaultAccessTTL      = 15 * time.Minute
	defaultRefreshTTL     = 24 * time.Hour
	defaultAccessCookie   = "access_token"
	defaultRefreshCookie  = "refresh_token"
	defaultRefreshTimeout = 5 * time.Second
)

type Config struct {
	// Default logging level
	LogLevel string `env:"LOG_LEVEL"`

	// Address on which the service will be run
	ListenAddr string `env:"RUN_ADDRESS"`

	// User store to connect to
	DatabaseDSN string `env:"DATABASE_URI"`

	// Secret key to sign session tokens
	SecretKey string `env:"SESSION_SECRET"`

	AccessTTL  time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN"`

	AccessCookieName  string `env:"ACCESS_TOKEN_NAME"`
	RefreshCookieName string `env:"REFRESH_TOKEN_NAME"`

	// Environment: production or development
	Environment string `env:"ENVIRONMENT"`

	// Refresh endpoint the gate calls to renew sessions
	// Empty means in process renewal
	RefreshURL     string        `env:"REFRESH_URL"`
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT"`
}

func NewConfig() *Config {
	return &Config{
		LogLevel:          defaultLoggingLevel,
		ListenAddr:        defaultListenAddr,
		Environment:       defaultEnvironment,
		AccessTTL:         defaultAccessTTL,
		RefreshTTL:        defaultRefreshTTL,
		AccessCookieName:  defaultAccessCookie,
		RefreshCookieName: defaultRefreshCookie,
		RefreshTimeout:    defaultRefreshTimeout,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(envMap)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

// LoadEnv overrides options with non empty variables of environ
func (c *Config) LoadEnv(environ map[string]string) error {
	return env.ParseWithOptions(c, env.Options{Environment: environ})
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("gatekeeper", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key to sign session tokens")
	fs.DurationVar(&c.AccessTTL, "access-ttl", c.AccessTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTTL, "refresh-ttl", c.RefreshTTL, "Refresh token lifetime")
	fs.StringVar(&c.AccessCookieName, "access-cookie", c.AccessCookieName, "Access token cookie name")
	fs.StringVar(&c.RefreshCookieName, "refresh-cookie", c.RefreshCookieName, "Refresh token cookie name")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (production, development)")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVar(&c.RefreshURL, "refresh-url", c.RefreshURL, "Refresh endpoint for session renewal, in process if empty")
	fs.DurationVar(&c.RefreshTimeout, "refresh-timeout", c.RefreshTimeout, "Session renewal timeout")

	return fs.Parse(args)
}

func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required (SESSION_SECRET or --secret-key)"))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required (DATABASE_URI or --database)"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	} else if c.AccessTTL >= c.RefreshTTL {
		errs = append(errs, fmt.Errorf("access token lifetime %s must be shorter than refresh one %s", c.AccessTTL, c.RefreshTTL))
	}
	if c.AccessCookieName == c.RefreshCookieName {
		errs = append(errs, fmt.Errorf("access and refresh cookies must have different names, got %q", c.AccessCookieName))
	}
	if c.RefreshTimeout <= 0 {
		errs = append(errs, errors.New("refresh timeout must be positive"))
	}

	return errors.Join(errs...)
}
