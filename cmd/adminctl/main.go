// Command adminctl runs maintenance tasks against the portfolio database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/edwanmarques/portfolio/internal/config"
	"github.com/edwanmarques/portfolio/internal/database"
	"github.com/edwanmarques/portfolio/internal/repository"
	"github.com/edwanmarques/portfolio/internal/tools/adminctl"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadDatabase()
	if err != nil {
		exitf(2, "config: %v", err)
	}
	db, err := database.Open(cfg)
	if err != nil {
		exitf(1, "database: %v", err)
	}
	defer database.Close(db)

	bcryptCost := 10
	if full, err := config.Load(); err == nil {
		bcryptCost = full.BcryptCost
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := adminctl.Env{
		Users:      repository.NewUserRepo(db),
		Contacts:   repository.NewContactRepo(db),
		Projects:   repository.NewProjectRepo(db),
		Sessions:   repository.NewSessionRepo(db),
		Migrate:    func() error { return database.Migrate(db) },
		BcryptCost: bcryptCost,
	}
	if err := adminctl.Run(ctx, env, os.Args[1:], os.Stdout); err != nil {
		code := 1
		if errors.Is(err, adminctl.ErrUsage) {
			code = 2
		}
		database.Close(db)
		exitf(code, "adminctl: %v", err)
	}
}

func exitf(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
