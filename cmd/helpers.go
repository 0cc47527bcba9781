package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/app"
	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/config"
	"github.com/mugo-bistro/mugo/internal/db"
	"github.com/mugo-bistro/mugo/internal/editor"
	"github.com/mugo-bistro/mugo/internal/logging"
	"github.com/mugo-bistro/mugo/internal/menufile"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `mugo init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the logger from the --verbose flag and the log section.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(verbose || cfg.Log.Verbose, cfg.Log.Console)
}

// setup loads the config and the logger in one step.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newClient builds the editor side with terminal prompts for credentials
// and the repository token.
func newClient(cfg *config.Config, logger *zap.Logger, ui editor.UI) (*app.Client, error) {
	return app.BuildClient(cfg, logger, app.ClientOptions{
		Prompter: editor.Prompter{UI: ui, DefaultUser: cfg.AdminUser},
		RemoteToken: func(ctx context.Context) (string, error) {
			ui.Printf("No token stored for %s/%s.\n", cfg.Remote.Owner, cfg.Remote.Repo)
			return ui.Secret("Repository API token")
		},
	})
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// recordAudit appends an entry to the server's audit trail.
func recordAudit(ctx context.Context, cfg *config.Config, e audit.Entry) error {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer database.Close()
	return audit.NewStore(database).Log(ctx, e)
}

// localActor names the operator in audit entries written by the CLI.
func localActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}

func repository(cfg *config.Config, logger *zap.Logger) *menufile.Repository {
	return menufile.NewRepository(cfg.MenuPath(), logger.Named("menufile"))
}
