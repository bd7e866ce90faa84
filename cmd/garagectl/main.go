// Command garagectl is a terminal client for the GarageDesk API. It signs
// owners in, keeps their session between runs and walks them through garage
// onboarding from a YAML draft.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gosuda/garagedesk/internal/auth"
	"github.com/gosuda/garagedesk/internal/config"
	"github.com/gosuda/garagedesk/internal/gateway"
	"github.com/gosuda/garagedesk/internal/logging"
	"github.com/gosuda/garagedesk/internal/onboarding"
	"github.com/gosuda/garagedesk/internal/secrets"
	"github.com/gosuda/garagedesk/internal/session"
	"github.com/gosuda/garagedesk/internal/store/file"
	redisstore "github.com/gosuda/garagedesk/internal/store/redis"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", userMessage(err))
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log, os.Stderr)

	a, err := newApp(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer a.close()

	return a.dispatch(ctx, args)
}

// app is the client stack shared by every command.
type app struct {
	out     io.Writer
	api     *gateway.Client
	manager *auth.Manager
	prefs   *session.Preferences
	closer  func() error
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a, err := newAppWithStore(cfg, store, out)
	if err != nil {
		_ = closer()
		return nil, err
	}
	a.closer = closer
	return a, nil
}

func newAppWithStore(cfg *config.Config, store session.Store, out io.Writer) (*app, error) {
	opts := []gateway.Option{gateway.WithTimeout(cfg.API.Timeout)}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, gateway.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst))
	}
	api, err := gateway.New(cfg.API.BaseURL, opts...)
	if err != nil {
		return nil, err
	}

	manager := auth.NewManager(api, store)
	api.SetTokenSource(manager)

	return &app{
		out:     out,
		api:     api,
		manager: manager,
		prefs:   session.NewPreferences(store),
		closer:  func() error { return nil },
	}, nil
}

func (a *app) close() {
	if err := a.closer(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: close session store:", err)
	}
}

// openStore builds the session store named by the config.
func openStore(ctx context.Context, cfg *config.Config) (session.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Session.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), noop, nil

	case config.BackendRedis:
		s, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		var sealer file.Sealer
		if cfg.Session.Key != "" {
			key, err := secrets.ParseKey(cfg.Session.Key)
			if err != nil {
				return nil, nil, err
			}
			vault, err := secrets.NewVault(key)
			if err != nil {
				return nil, nil, err
			}
			sealer = vault
		}
		s, err := file.New(cfg.Session.Path, sealer)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	}
}

var errUsage = errors.New("usage")

// userMessage turns an error into the line shown to the operator. Server
// messages are shown verbatim.
func userMessage(err error) string {
	var (
		authErr *auth.Error
		failure *onboarding.Failure
		apiErr  *gateway.Error
		staff   *staffError
	)
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &failure):
		if failure.Kind == onboarding.FailureValidation && len(failure.Fields) > 0 {
			return fmt.Sprintf("%s: %s", failure.Step, failure.Fields.First())
		}
		return failure.Message
	case errors.As(err, &staff):
		return staff.Error()
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, auth.ErrNotAuthenticated):
		return "Not signed in. Run 'garagectl login' first."
	case errors.Is(err, gateway.ErrNetwork):
		return gateway.NetworkErrorMessage
	default:
		return err.Error()
	}
}
