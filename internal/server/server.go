package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/assets"
	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/live"
	"github.com/mugo-bistro/mugo/internal/menufile"
	"github.com/mugo-bistro/mugo/internal/render"
	"github.com/mugo-bistro/mugo/internal/session"
)

// DefaultRealm is the Basic auth realm announced on 401 responses.
const DefaultRealm = "MUGO Admin"

// DefaultStaticDeny keeps backups, dotfiles, databases and config out of
// the static file server.
var DefaultStaticDeny = []string{"**/*.bak", "**/.*", "**/.*/**", "**/*.db", "**/*.db-*", "**/*.yml", "**/*.yaml", "**/*.go"}

// Config holds server configuration.
type Config struct {
	Port      int
	SiteDir   string // directory served as static files
	AdminUser string
	AdminPass string
	Realm     string
	Title     string // page title of the storefront
	AllowAll  bool   // allow all CORS origins (dev mode)
	// StaticDeny lists doublestar patterns never served from SiteDir.
	StaticDeny []string
	Render     render.Options
}

// Notifier is told about every recorded menu change.
type Notifier interface {
	Notify(e audit.Entry)
}

// Server serves the storefront, the save endpoint and the admin form.
type Server struct {
	cfg        Config
	repo       *menufile.Repository
	audit      *audit.Store
	hub        *live.Hub
	notifier   Notifier
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server

	adminMu sync.Mutex
	admin   *session.Session
}

// New creates a server. auditStore and hub may be nil.
func New(cfg Config, repo *menufile.Repository, auditStore *audit.Store, hub *live.Hub, logger *zap.Logger) *Server {
	if cfg.Realm == "" {
		cfg.Realm = DefaultRealm
	}
	if cfg.Title == "" {
		cfg.Title = "Menu"
	}
	if cfg.StaticDeny == nil {
		cfg.StaticDeny = DefaultStaticDeny
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		repo:   repo,
		audit:  auditStore,
		hub:    hub,
		logger: logger,
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Websockets outlive the request timeout.
	if s.hub != nil {
		s.hub.RegisterRoutes(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Get("/", s.handleStorefront)
		r.Get("/index.html", s.handleStorefront)
		r.Get("/menu.json", s.handleMenuJSON)
		r.With(s.requireAdmin).Post("/save-menu", s.handleSaveMenu)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/", s.handleAdmin)
			r.Post("/", s.handleAdminPost)
		})

		if s.audit != nil {
			audit.RegisterRoutes(r, s.audit, s.requireAdmin)
		}

		r.Handle(assets.Prefix+"*", assets.Handler())
		r.Get("/*", s.handleStatic)
	})

	return r
}

// SetNotifier registers n for menu change events. Call it before serving.
func (s *Server) SetNotifier(n Notifier) { s.notifier = n }

// securityHeaders keeps the admin pages out of frames and stops MIME sniffing.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Repository returns the menu file repository.
func (s *Server) Repository() *menufile.Repository { return s.repo }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("mugo server listening", zap.String("addr", ln.Addr().String()), zap.String("menu", s.repo.Path()))
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
