// Command portfolioctl talks to a running portfolio API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/edwanmarques/portfolio/internal/client"
	"github.com/edwanmarques/portfolio/internal/tools/portfolioctl"
)

func main() {
	_ = godotenv.Load()

	cfg, err := portfolioctl.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := portfolioctl.Run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		code := 1
		if errors.Is(err, portfolioctl.ErrUsage) {
			code = 2
		}
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			for field, msg := range apiErr.Errors {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
			}
		}
		stop()
		fmt.Fprintf(os.Stderr, "portfolioctl: %v\n", err)
		os.Exit(code)
	}
}
