// Package app assembles mugo's components with a dig container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/config"
	"github.com/mugo-bistro/mugo/internal/db"
	"github.com/mugo-bistro/mugo/internal/live"
	"github.com/mugo-bistro/mugo/internal/menufile"
	"github.com/mugo-bistro/mugo/internal/notifications"
	"github.com/mugo-bistro/mugo/internal/render"
	"github.com/mugo-bistro/mugo/internal/server"
)

// Server is the assembled menu server.
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *db.DB
	Audit  *audit.Store
	Repo   *menufile.Repository
	Hub    *live.Hub
	HTTP   *server.Server
	// Webhooks is nil when no webhook URLs are configured.
	Webhooks *notifications.Dispatcher
}

// BuildServer wires the database, audit trail, menu repository, live hub,
// webhook dispatcher and HTTP server from cfg.
func BuildServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := dig.New()
	providers := []any{
		func() *config.Config { return cfg },
		func() *zap.Logger { return logger },
		openServerDB,
		audit.NewStore,
		newRepository,
		live.NewHub,
		newDispatcher,
		serverConfig,
		server.New,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, fmt.Errorf("registering provider: %w", err)
		}
	}

	var app *Server
	err := c.Invoke(func(
		database *db.DB,
		auditStore *audit.Store,
		repo *menufile.Repository,
		hub *live.Hub,
		webhooks *notifications.Dispatcher,
		srv *server.Server,
	) {
		if webhooks != nil {
			srv.SetNotifier(webhooks)
		}
		app = &Server{
			Config:   cfg,
			Logger:   logger,
			DB:       database,
			Audit:    auditStore,
			Repo:     repo,
			Hub:      hub,
			HTTP:     srv,
			Webhooks: webhooks,
		}
	})
	if err != nil {
		return nil, dig.RootCause(err)
	}
	return app, nil
}

func openServerDB(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.DatabasePath(), err)
	}
	return database, nil
}

func newRepository(cfg *config.Config, logger *zap.Logger) *menufile.Repository {
	return menufile.NewRepository(cfg.MenuPath(), logger.Named("menufile"))
}

func newDispatcher(cfg *config.Config, logger *zap.Logger) *notifications.Dispatcher {
	if len(cfg.Webhooks.URLs) == 0 {
		return nil
	}
	return notifications.NewDispatcher(cfg.Webhooks.URLs, cfg.Webhooks.Secret, logger.Named("webhooks"))
}

func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		Port:       cfg.Port,
		SiteDir:    cfg.SiteDir,
		AdminUser:  cfg.AdminUser,
		AdminPass:  cfg.AdminPass,
		Realm:      cfg.Realm,
		Title:      cfg.RestaurantName,
		AllowAll:   cfg.AllowAllOrigins,
		StaticDeny: cfg.StaticDeny,
		Render: render.Options{
			Markdown: cfg.MarkdownDescriptions,
			Currency: cfg.Currency,
		},
	}
}

// Run starts the live hub, the file watcher (when enabled) and the HTTP
// server, and blocks until ctx is cancelled or the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.Config.Port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.Config.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		s.Hub.Run(ctx)
	}()
	defer func() { <-hubDone }()

	if s.Webhooks != nil {
		webhooksDone := make(chan struct{})
		go func() {
			defer close(webhooksDone)
			s.Webhooks.Run(ctx)
		}()
		defer func() { <-webhooksDone }()
	}
	defer cancel()

	if s.Config.Watch {
		w, err := menufile.NewWatcher(s.Repo, 0, s.HTTP.MenuChangedOnDisk, s.Logger.Named("watcher"))
		if err != nil {
			s.Logger.Warn("file watcher unavailable", zap.Error(err))
		} else if err := w.Start(ctx); err != nil {
			s.Logger.Warn("file watcher unavailable", zap.Error(err))
			w.Stop()
		} else {
			defer w.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.HTTP.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := s.HTTP.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the database.
func (s *Server) Close() error {
	return s.DB.Close()
}
