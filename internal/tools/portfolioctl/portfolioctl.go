// Package portfolioctl is a command-line front end for the portfolio API.
// Each invocation is a fresh client, so commands that need an admin
// session log in first with the configured credentials.
package portfolioctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/edwanmarques/portfolio/internal/client"
)

// Config is read from the environment; flags on individual commands win.
type Config struct {
	BaseURL  string        `env:"PORTFOLIO_URL" envDefault:"http://localhost:3000"`
	Username string        `env:"PORTFOLIO_USERNAME"`
	Password string        `env:"PORTFOLIO_PASSWORD"`
	Timeout  time.Duration `env:"PORTFOLIO_TIMEOUT" envDefault:"30s"`

	// HTTPClient overrides the transport; tests point it at an httptest server.
	HTTPClient *http.Client `env:"-"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ErrUsage is returned for an unknown or incomplete command line.
var ErrUsage = errors.New("invalid usage")

const usage = `usage: portfolioctl <command> [flags]

commands:
  health
  setup [-username U -password P]
  check
  projects list
  projects get <slug>
  projects create -title T [-slug S] -description D -image I -category C -tech a,b [...]
  projects update -id N [field flags]
  projects delete -id N
  contact submit -name N -email E -subject S -message M
  contacts list

PORTFOLIO_URL, PORTFOLIO_USERNAME and PORTFOLIO_PASSWORD configure the target.
`

// Run executes one command and prints its JSON result to out.
func Run(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return ErrUsage
	}
	opts := []client.Option{client.WithStaleTime(0)}
	if cfg.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.Timeout))
	}
	c, err := client.New(cfg.BaseURL, opts...)
	if err != nil {
		return err
	}
	r := &runner{cfg: cfg, c: c, out: out}

	switch args[0] {
	case "health":
		h, err := c.Health(ctx)
		if err != nil {
			return err
		}
		return r.print(h)
	case "setup":
		return r.setup(ctx, args[1:])
	case "check":
		if err := r.login(ctx); err != nil {
			return err
		}
		id, err := c.Check(ctx)
		if err != nil {
			return err
		}
		return r.print(map[string]uint64{"userId": id})
	case "projects":
		return r.projects(ctx, args[1:])
	case "contact":
		if len(args) < 2 || args[1] != "submit" {
			return usageErr("contact submit")
		}
		return r.submitContact(ctx, args[2:])
	case "contacts":
		if len(args) < 2 || args[1] != "list" {
			return usageErr("contacts list")
		}
		if err := r.login(ctx); err != nil {
			return err
		}
		list, err := c.ListContacts(ctx)
		if err != nil {
			return err
		}
		return r.print(list)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}
	fmt.Fprint(out, usage)
	return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
}

func usageErr(want string) error { return fmt.Errorf("%w: expected %q", ErrUsage, want) }

type runner struct {
	cfg Config
	c   *client.Client
	out io.Writer
}

func (r *runner) print(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *runner) login(ctx context.Context) error {
	if r.cfg.Username == "" || r.cfg.Password == "" {
		return errors.New("PORTFOLIO_USERNAME and PORTFOLIO_PASSWORD are required for this command")
	}
	if err := r.c.Login(ctx, r.cfg.Username, r.cfg.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (r *runner) setup(ctx context.Context, args []string) error {
	fs := newFlagSet("setup", r.out)
	username := fs.String("username", r.cfg.Username, "admin username")
	password := fs.String("password", r.cfg.Password, "admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := r.c.Setup(ctx, *username, *password)
	if err != nil {
		return err
	}
	return r.print(map[string]uint64{"userId": id})
}

func (r *runner) submitContact(ctx context.Context, args []string) error {
	fs := newFlagSet("contact submit", r.out)
	var in client.ContactInput
	fs.StringVar(&in.Name, "name", "", "sender name")
	fs.StringVar(&in.Email, "email", "", "sender email")
	fs.StringVar(&in.Subject, "subject", "", "subject line")
	fs.StringVar(&in.Message, "message", "", "message body")
	if err := fs.Parse(args); err != nil {
		return err
	}
	msg, err := r.c.SubmitContact(ctx, in)
	if err != nil {
		return err
	}
	return r.print(msg)
}

func (r *runner) projects(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("projects list|get|create|update|delete")
	}
	switch args[0] {
	case "list":
		list, err := r.c.ListProjects(ctx)
		if err != nil {
			return err
		}
		return r.print(list)
	case "get":
		if len(args) != 2 {
			return usageErr("projects get <slug>")
		}
		p, err := r.c.GetProject(ctx, args[1])
		if err != nil {
			return err
		}
		return r.print(p)
	case "create":
		return r.createProject(ctx, args[1:])
	case "update":
		return r.updateProject(ctx, args[1:])
	case "delete":
		fs := newFlagSet("projects delete", r.out)
		id := fs.Uint64("id", 0, "project id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == 0 {
			return usageErr("projects delete -id N")
		}
		if err := r.login(ctx); err != nil {
			return err
		}
		if err := r.c.DeleteProject(ctx, *id); err != nil {
			return err
		}
		return r.print(map[string]string{"message": "Project deleted"})
	}
	return fmt.Errorf("%w: unknown projects command %q", ErrUsage, args[0])
}
