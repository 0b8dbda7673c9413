package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
	"github.com/nkiryanov/gatekeeper/internal/db"
	"github.com/nkiryanov/gatekeeper/internal/logger"
	"github.com/nkiryanov/gatekeeper/internal/models"
	"github.com/nkiryanov/gatekeeper/internal/repository/postgres"
	"github.com/nkiryanov/gatekeeper/internal/service/auth"
	"github.com/nkiryanov/gatekeeper/internal/service/user"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_URI"`

	Email     string
	Password  string
	Username  string
	FirstName string
	LastName  string
	Role      string
}

type userCreator interface {
	CreateUser(ctx context.Context, user models.User, password string) (models.User, error)
}

func main() {
	if err := run(context.Background(), os.Environ, os.Getwd, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, environ func() []string, getwd func() (string, error), args []string) error {
	c, err := loadConfig(environ, getwd, args)
	if err != nil {
		return err
	}

	l, err := logger.New(logger.EnvDevelopment, logger.LevelInfo)
	if err != nil {
		return err
	}

	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("error while connecting to db: %w", err)
	}
	defer pool.Close()

	users := user.NewService(auth.BcryptHasher{Cost: auth.DefaultBcryptCost}, postgres.NewStorage(pool).User())

	return seed(ctx, users, c, l)
}

// seed creates the user once, existing email is reported and is not a failure
func seed(ctx context.Context, users userCreator, c Config, l logger.Logger) error {
	u, err := users.CreateUser(ctx, models.User{
		Email:     c.Email,
		Username:  c.Username,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      models.Role(c.Role),
	}, c.Password)

	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		l.Info("User already exists, nothing to do", "email", c.Email)
		return nil
	case err != nil:
		return fmt.Errorf("error while creating user: %w", err)
	}

	l.Info("User created", "id", u.ID.String(), "email", u.Email, "role", string(u.Role))
	return nil
}

func loadConfig(environ func() []string, getwd func() (string, error), args []string) (Config, error) {
	c := Config{
		Email:    "admin@example.com",
		Password: "admin",
		Username: "admin",
		Role:     string(models.RoleAdmin),
	}

	wd, err := getwd()
	if err != nil {
		return c, err
	}
	// Missing .env adds nothing: nil environment would make env read the process one
	environments := []map[string]string{env.ToMap(environ())}
	dotenv, err := godotenv.Read(filepath.Join(wd, ".env"))
	switch {
	case err == nil:
		environments = append([]map[string]string{dotenv}, environments...)
	case !errors.Is(err, os.ErrNotExist):
		return c, err
	}
	for _, environment := range environments {
		if err := env.ParseWithOptions(&c, env.Options{Environment: environment}); err != nil {
			return c, err
		}
	}

	fs := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.Email, "email", c.Email, "User email, used as login")
	fs.StringVar(&c.Password, "password", c.Password, "User password")
	fs.StringVar(&c.Username, "username", c.Username, "Username")
	fs.StringVar(&c.FirstName, "first-name", c.FirstName, "First name")
	fs.StringVar(&c.LastName, "last-name", c.LastName, "Last name")
	fs.StringVar(&c.Role, "role", c.Role, "Role (ADMIN, GUEST)")
	if err := fs.Parse(args); err != nil {
		return c, err
	}

	if c.DatabaseDSN == "" {
		return c, errors.New("database DSN is required (DATABASE_URI or --database)")
	}
	return c, nil
}
