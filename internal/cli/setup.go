package cli

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aaronromeo/mailtriage/internal/address"
	"github.com/aaronromeo/mailtriage/internal/announcer"
	"github.com/aaronromeo/mailtriage/internal/config"
	"github.com/aaronromeo/mailtriage/internal/header"
	"github.com/aaronromeo/mailtriage/internal/imap"
	"github.com/aaronromeo/mailtriage/internal/imap/sessionmgr"
	"github.com/aaronromeo/mailtriage/internal/message"
	"github.com/aaronromeo/mailtriage/internal/mover"
	"github.com/aaronromeo/mailtriage/internal/rules"
	"github.com/aaronromeo/mailtriage/internal/status"
	"github.com/aaronromeo/mailtriage/internal/syncer"
	"github.com/aaronromeo/mailtriage/internal/telemetry"
	"github.com/aaronromeo/mailtriage/internal/watchrunner"
)

const configEnvVar = "MAILTRIAGE_CONFIG"
const defaultEnvFile = ".env"

// sessionTLSConfig is nil in production, which verifies the server
// certificate against the dialed host name.
var sessionTLSConfig *tls.Config

func resolveConfigPath(cmd *cobra.Command) (string, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = os.Getenv(configEnvVar)
	}
	return strings.TrimSpace(cfgPath), nil
}

func loadEnvFile() error {
	if _, err := os.Stat(defaultEnvFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(defaultEnvFile)
}

// loadConfig reads the routing tables, falling back to the built-in ones when
// no file is configured.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, err := resolveConfigPath(cmd)
	if err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			return config.Config{}, err
		}
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

type runtime struct {
	cfg      config.Config
	env      config.Env
	log      *slog.Logger
	runID    string
	shutdown func(context.Context) error
}

// setup loads .env, configuration and environment, then starts telemetry and
// the logger. Nothing touches the network before configuration is valid.
func setup(cmd *cobra.Command, logOut io.Writer) (*runtime, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	env, err := config.EnvFromEnv()
	if err != nil {
		return nil, err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	otelStdout, err := cmd.Flags().GetBool("otel-stdout")
	if err != nil {
		return nil, err
	}

	telemetryOpts := telemetry.Options{Endpoint: env.OTLPEndpoint, StdoutLogs: otelStdout, Writer: cmd.OutOrStdout()}
	shutdown, err := telemetry.Setup(commandContext(cmd), telemetryOpts)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	runID := uuid.NewString()
	log := telemetry.NewLogger(logOut, level, telemetryOpts.Enabled()).With("run_id", runID)
	log.Debug(config.Summary(cfg, env))

	return &runtime{cfg: cfg, env: env, log: log, runID: runID, shutdown: shutdown}, nil
}

func (rt *runtime) close() {
	if err := rt.shutdown(context.Background()); err != nil {
		rt.log.Warn("telemetry shutdown", "error", err)
	}
}

// connect dials and logs in.
func (rt *runtime) connect() (*imap.Client, error) {
	client := imap.New(
		sessionmgr.WithAddr(rt.env.Addr()),
		sessionmgr.WithCreds(rt.env.User, rt.env.Pass),
		sessionmgr.WithTLSConfig(sessionTLSConfig),
	)
	if err := client.Connect(); err != nil {
		return nil, err
	}
	rt.log.Info("connected", "addr", rt.env.Addr(), "user", rt.env.User)
	return client, nil
}

type pipelineOptions struct {
	dryRun  bool
	tracker *status.Tracker
}

// pipeline wires the sync driver and the runner over client.
func (rt *runtime) pipeline(ctx context.Context, client *imap.Client, opts pipelineOptions) (*watchrunner.Runner, error) {
	patterns, err := rt.env.Patterns()
	if err != nil {
		return nil, err
	}
	extractor := header.NewExtractor(address.NewResolver(patterns, rt.log), rt.log)
	engine := rules.Default(config.RuleOptions(rt.cfg, rt.env))

	var mv syncer.Mover = mover.New(client, rt.log)
	if opts.dryRun {
		mv = mover.DryRun{Log: rt.log}
	}

	driverOpts := []syncer.Option{syncer.WithLogger(rt.log)}
	if ann := announcer.New(announcer.WithWebhookURL(rt.env.WebhookURL)); ann.Enabled() && !opts.dryRun {
		driverOpts = append(driverOpts, syncer.WithObserver(func(h message.Header, d rules.Decision) {
			if err := ann.Announce(ctx, h, d); err != nil {
				rt.log.Warn("announcement failed", "uid", h.Identity.UID, "error", err)
			}
		}))
	}
	runnerOpts := []watchrunner.Option{
		watchrunner.WithMailbox(rt.cfg.Mailbox),
		watchrunner.WithKeepalive(rt.env.IdleKeepalive),
		watchrunner.WithLogger(rt.log),
	}
	if opts.tracker != nil {
		driverOpts = append(driverOpts, syncer.WithReporter(opts.tracker.Pass))
		runnerOpts = append(runnerOpts, watchrunner.WithReporter(opts.tracker.Progress))
	}

	driver := syncer.New(client, extractor, engine, mv, driverOpts...)
	return watchrunner.New(client, driver, runnerOpts...), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
