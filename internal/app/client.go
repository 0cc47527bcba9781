package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/mugo-bistro/mugo/internal/config"
	"github.com/mugo-bistro/mugo/internal/db"
	"github.com/mugo-bistro/mugo/internal/localstore"
	"github.com/mugo-bistro/mugo/internal/persist"
	"github.com/mugo-bistro/mugo/internal/session"
)

// ErrRemoteNotConfigured is returned by Client.Remote without remote.owner
// and remote.repo.
var ErrRemoteNotConfigured = errors.New("remote repository not configured (set remote.owner and remote.repo)")

// ClientOptions tunes BuildClient. The zero value is usable.
type ClientOptions struct {
	// StorePath is the local storage database. Empty means
	// localstore.DefaultPath, ":memory:" an in-memory store.
	StorePath  string
	Prompter   persist.Prompter
	HTTPClient *http.Client
	Downloader persist.Downloader
	// RemoteToken asks for a repository API token when none is stored.
	RemoteToken func(ctx context.Context) (string, error)
}

// Client is the editor side: local storage plus the persistence coordinator.
type Client struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *db.DB
	Store       *localstore.Store
	Coordinator *persist.Coordinator

	remoteToken func(ctx context.Context) (string, error)
	httpClient  *http.Client
}

// BuildClient wires local storage and the persistence coordinator.
func BuildClient(cfg *config.Config, logger *zap.Logger, opts ClientOptions) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := dig.New()
	providers := []any{
		func() *config.Config { return cfg },
		func() *zap.Logger { return logger },
		func() ClientOptions { return opts },
		openLocalDB,
		localstore.New,
		newCoordinator,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, fmt.Errorf("registering provider: %w", err)
		}
	}

	var client *Client
	err := c.Invoke(func(database *db.DB, store *localstore.Store, coord *persist.Coordinator) {
		client = &Client{
			Config:      cfg,
			Logger:      logger,
			DB:          database,
			Store:       store,
			Coordinator: coord,
			remoteToken: opts.RemoteToken,
			httpClient:  opts.HTTPClient,
		}
	})
	if err != nil {
		return nil, dig.RootCause(err)
	}
	return client, nil
}

func openLocalDB(opts ClientOptions) (*db.DB, error) {
	path := opts.StorePath
	if path == ":memory:" {
		return db.OpenMemory()
	}
	if path == "" {
		p, err := localstore.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening local storage %s: %w", path, err)
	}
	return database, nil
}

func newCoordinator(cfg *config.Config, store *localstore.Store, opts ClientOptions, logger *zap.Logger) *persist.Coordinator {
	downloader := opts.Downloader
	if downloader == nil {
		downloader = persist.FileDownloader{Dir: cfg.DownloadDir}
	}
	return persist.New(persist.Options{
		ServerURL:  cfg.ServerURL,
		HTTPClient: opts.HTTPClient,
		Tokens:     store,
		Prompter:   opts.Prompter,
		Downloader: downloader,
		Cache:      store,
		Logger:     logger.Named("persist"),
	})
}

// OpenSession loads the working menu. A local draft is resumed on top of
// the server's menu so its differences show as unsaved; when the server is
// unreachable the draft is its own baseline.
func (c *Client) OpenSession(ctx context.Context) (*session.Session, persist.Source, error) {
	doc, src, err := c.Coordinator.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	if src != persist.SourceCache {
		return session.New(doc), src, nil
	}
	published, err := c.Coordinator.Fetch(ctx)
	if err != nil {
		c.Logger.Warn("server menu unavailable, editing the local draft as is", zap.Error(err))
		return session.New(doc), src, nil
	}
	return session.Resume(published, doc), src, nil
}

// Remote returns a committer for the configured repository. The token is
// taken from the config, then local storage, then the RemoteToken prompt,
// whose answer is stored.
func (c *Client) Remote(ctx context.Context) (*persist.RemoteCommitter, error) {
	rc := c.Config.Remote
	if !rc.Enabled() {
		return nil, ErrRemoteNotConfigured
	}

	token := rc.Token
	if token == "" {
		stored, ok, err := c.Store.RemoteToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading stored token: %w", err)
		}
		if ok {
			token = stored
		}
	}
	if token == "" && c.remoteToken != nil {
		entered, err := c.remoteToken(ctx)
		if err != nil {
			return nil, err
		}
		token = strings.TrimSpace(entered)
		if token != "" {
			if err := c.Store.SetRemoteToken(ctx, token); err != nil {
				c.Logger.Warn("storing remote token", zap.Error(err))
			}
		}
	}
	if token == "" {
		return nil, fmt.Errorf("remote %s/%s: %w", rc.Owner, rc.Repo, persist.ErrAuthRequired)
	}

	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	return persist.NewRemoteCommitter(ctx, persist.RemoteConfig{
		APIURL: rc.APIURL,
		Owner:  rc.Owner,
		Repo:   rc.Repo,
		Branch: rc.Branch,
		Path:   rc.Path,
	}, token, c.Logger.Named("remote")), nil
}

// Close releases local storage.
func (c *Client) Close() error {
	return c.DB.Close()
}
