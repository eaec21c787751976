// Package cli implements the campusfix command line. Each screen of the
// CampusFix web client is a command; screen commands are admitted through
// the route table before they run, so a signed-out user is told to sign in
// and each role is pointed at its own home.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/me/campusfix/internal/api"
	"github.com/me/campusfix/internal/apiclient"
	"github.com/me/campusfix/internal/config"
	"github.com/me/campusfix/internal/logging"
	"github.com/me/campusfix/internal/metrics"
	"github.com/me/campusfix/internal/route"
	"github.com/me/campusfix/internal/session"
	"github.com/me/campusfix/internal/settings"
	"github.com/me/campusfix/internal/tokenstore"
	"github.com/me/campusfix/pkg/model"
)

// app carries everything a command needs. It is built once per invocation
// in PersistentPreRunE.
type app struct {
	flagAPI        string
	flagTokenStore string
	flagStateDir   string
	flagProfile    string
	flagTimeout    time.Duration
	flagDebug      bool
	flagLogLevel   string
	flagLogFormat  string
	flagMetrics    bool

	cfg      config.ClientConfig
	logger   *slog.Logger
	tokens   tokenstore.Store
	closer   io.Closer
	metrics  *metrics.Client
	api      *api.API
	session  *session.Manager
	settings *settings.Store
	routes   *route.Table
}

// NewRootCmd creates the root cobra command for the campusfix CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "campusfix",
		Short: "CampusFix: report and track campus facility issues",
		Long:  "campusfix signs in to a CampusFix server and lets you report, follow and manage facility issues.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flagAPI, "api", "", "CampusFix API URL (or CAMPUSFIX_API_URL env)")
	pf.StringVar(&a.flagTokenStore, "token-store", "", "Credential store: file, sqlite, redis, memory (or CAMPUSFIX_TOKEN_STORE env)")
	pf.StringVar(&a.flagStateDir, "state-dir", "", "Directory for credentials and settings (default ~/.campusfix)")
	pf.StringVar(&a.flagProfile, "profile", "", "Credential profile name for sqlite and redis stores")
	pf.DurationVar(&a.flagTimeout, "timeout", 0, "Per-request timeout (default 30s)")
	pf.BoolVar(&a.flagDebug, "debug", false, "Enable debug logging")
	pf.StringVar(&a.flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.flagLogFormat, "log-format", "", "Log format (text, json)")
	pf.BoolVar(&a.flagMetrics, "metrics", false, "Print client metrics to stderr after the command")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newPasswordCmd(a),
		newProfileCmd(a),
		newDashboardCmd(a),
		newIssuesCmd(a),
		newReportCmd(a),
		newNotificationsCmd(a),
		newAdminCmd(a),
		newSettingsCmd(a),
		newRouteCmd(a),
	)

	return root
}

// setup loads configuration, applies flag overrides and builds the
// client stack. The session is resolved before any command runs.
func (a *app) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if a.flagAPI != "" {
		cfg.APIURL = a.flagAPI
	}
	if a.flagTokenStore != "" {
		cfg.TokenStore = a.flagTokenStore
	}
	if a.flagStateDir != "" {
		cfg.StateDir = a.flagStateDir
	}
	if a.flagProfile != "" {
		cfg.Profile = a.flagProfile
	}
	if a.flagTimeout > 0 {
		cfg.Timeout = a.flagTimeout
	}
	if a.flagLogLevel != "" {
		cfg.LogLevel = a.flagLogLevel
	}
	if a.flagLogFormat != "" {
		cfg.LogFormat = a.flagLogFormat
	}
	if a.flagDebug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	a.logger.Debug("configuration loaded",
		"api", cfg.BaseURL(),
		"token_store", cfg.TokenStore,
		"state_dir", cfg.StateDir,
	)

	a.tokens, a.closer, err = tokenstore.Open(ctx, cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}

	a.metrics = metrics.New(prometheus.NewRegistry())
	client := apiclient.NewClient(
		apiclient.Config{BaseURL: cfg.BaseURL(), Timeout: cfg.Timeout},
		a.tokens, a.logger, apiclient.WithMetrics(a.metrics),
	)
	a.api = api.New(client)
	a.session = session.New(a.api.Auth, a.tokens, a.logger)
	a.settings = settings.NewStore(filepath.Join(cfg.StateDir, settings.FileName), a.logger)
	a.routes = route.Default()

	a.session.Start(ctx)
	return nil
}

// run wraps a command body: it reconciles the session with the credential
// store afterwards and releases the store.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.finish(cmd)
		return fn(cmd, args)
	}
}

func (a *app) finish(cmd *cobra.Command) {
	if a.session != nil {
		if before := a.session.Snapshot(); before.Authenticated() {
			if after := a.session.Sync(cmd.Context()); !after.Authenticated() {
				fmt.Fprintln(cmd.ErrOrStderr(), "Your session has expired. Please sign in again.")
			}
		}
	}
	if a.flagMetrics && a.metrics != nil {
		writeMetrics(cmd.ErrOrStderr(), a.metrics)
	}
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			a.logger.Warn("close credential store", "error", err)
		}
	}
}

// admit checks that the current session may open the screen at uri.
func (a *app) admit(uri string) error {
	d := a.routes.Admit(a.session.Snapshot(), uri)
	switch d.Kind {
	case route.Allow:
		return nil
	case route.RedirectLogin:
		return fmt.Errorf("not signed in: run 'campusfix login --from %s'", d.From)
	case route.RedirectHome:
		return fmt.Errorf("%s is not available to your account; your home is 'campusfix %s'", uri, homeCommand(d.Target))
	case route.NotFound:
		return fmt.Errorf("no screen at %s", uri)
	case route.Redirect:
		return fmt.Errorf("%s moved to %s", uri, d.Target)
	}
	return errors.New("session is still loading")
}

// requireSignIn admits any signed-in user regardless of role.
func (a *app) requireSignIn() error {
	if !a.session.Snapshot().Authenticated() {
		return errors.New("not signed in: run 'campusfix login'")
	}
	return nil
}

// homeCommand maps a home screen to the command that shows it.
func homeCommand(target string) string {
	if target == route.HomeAdmin {
		return "admin stats"
	}
	return "dashboard"
}

// check turns a failed result into an error carrying its message.
func check[T any](res model.Result[T]) (T, error) {
	v, ok := res.Value()
	if !ok {
		return v, errors.New(res.Message())
	}
	return v, nil
}
