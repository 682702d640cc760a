// Package adminctl implements the database maintenance commands: schema
// migration, a row-count health check, admin password reset, setup reset
// and expired-session purge.
package adminctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/edwanmarques/portfolio/internal/model"
	"github.com/edwanmarques/portfolio/internal/repository"
	"github.com/edwanmarques/portfolio/internal/utils"
)

// Env is what the commands operate on.
type Env struct {
	Users    repository.UserStore
	Contacts repository.ContactStore
	Projects repository.ProjectStore
	Sessions repository.SessionStore

	// Migrate creates or updates the schema. Nil means unsupported.
	Migrate    func() error
	BcryptCost int
	Now        func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

const usage = `usage: adminctl <command> [flags]

commands:
  migrate                                   create or update tables
  check-db                                  print row counts
  reset-password -username U -password P    set a new admin password
  reset-setup -yes                          delete all admins and sessions
  purge-sessions                            delete expired sessions
`

// ErrUsage is returned for an unknown or missing command.
var ErrUsage = errors.New("invalid usage")

// Run dispatches args[0] to a command and writes its report to out.
func Run(ctx context.Context, env Env, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate":
		return migrate(env, out)
	case "check-db":
		return checkDB(ctx, env, out)
	case "reset-password":
		return resetPassword(ctx, env, rest, out)
	case "reset-setup":
		return resetSetup(ctx, env, rest, out)
	case "purge-sessions":
		return purgeSessions(ctx, env, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}
	fmt.Fprint(out, usage)
	return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
}

func migrate(env Env, out io.Writer) error {
	if env.Migrate == nil {
		return errors.New("migrate: not supported by this store")
	}
	if err := env.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	_, err := fmt.Fprintln(out, "migrations applied")
	return err
}

func checkDB(ctx context.Context, env Env, out io.Writer) error {
	counts := []struct {
		name  string
		count func(context.Context) (int64, error)
	}{
		{"users", env.Users.Count},
		{"contacts", env.Contacts.Count},
		{"projects", env.Projects.Count},
	}
	for _, c := range counts {
		n, err := c.count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", c.name, err)
		}
		fmt.Fprintf(out, "%-10s %d\n", c.name, n)
	}
	n, err := env.Sessions.CountActive(ctx, env.now())
	if err != nil {
		return fmt.Errorf("count sessions: %w", err)
	}
	_, err = fmt.Fprintf(out, "%-10s %d active\n", "sessions", n)
	return err
}

func resetPassword(ctx context.Context, env Env, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "", "admin username (default: the first admin)")
	password := fs.String("password", "", "new password, at least 6 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(*password) < 6 {
		return errors.New("reset-password: -password must be at least 6 characters")
	}

	user, err := lookupAdmin(ctx, env.Users, strings.TrimSpace(*username))
	if errors.Is(err, repository.ErrNotFound) {
		return errors.New("reset-password: admin user not found")
	}
	if err != nil {
		return fmt.Errorf("reset-password: %w", err)
	}
	id := user.ID

	hash, err := utils.HashPassword(*password, env.BcryptCost)
	if err != nil {
		return fmt.Errorf("reset-password: hash: %w", err)
	}
	if err := env.Users.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("reset-password: %w", err)
	}
	revoked, err := env.Sessions.DeleteByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("reset-password: revoke sessions: %w", err)
	}
	_, err = fmt.Fprintf(out, "password updated for admin %d; %d session(s) revoked\n", id, revoked)
	return err
}

func lookupAdmin(ctx context.Context, users repository.UserStore, username string) (*model.AdminUser, error) {
	if username == "" {
		return users.First(ctx)
	}
	return users.GetByUsername(ctx, username)
}

// endOfTime is past every session expiry, so DeleteExpired with it clears
// the table.
var endOfTime = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

func resetSetup(ctx context.Context, env Env, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reset-setup", flag.ContinueOnError)
	fs.SetOutput(out)
	yes := fs.Bool("yes", false, "confirm deletion of every admin user")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("reset-setup: refusing without -yes")
	}
	users, err := env.Users.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("reset-setup: %w", err)
	}
	sessions, err := env.Sessions.DeleteExpired(ctx, endOfTime)
	if err != nil {
		return fmt.Errorf("reset-setup: sessions: %w", err)
	}
	_, err = fmt.Fprintf(out, "removed %d admin(s) and %d session(s); setup is open again\n", users, sessions)
	return err
}

func purgeSessions(ctx context.Context, env Env, out io.Writer) error {
	n, err := env.Sessions.DeleteExpired(ctx, env.now())
	if err != nil {
		return fmt.Errorf("purge-sessions: %w", err)
	}
	_, err = fmt.Fprintf(out, "removed %d expired session(s)\n", n)
	return err
}
