// Package persist saves and loads the menu on behalf of an editor session.
//
// Saving goes to the server's /save-menu endpoint. When the server cannot be
// reached (or does not have the endpoint) the menu is handed to a Downloader
// instead. A 401 prompts for new credentials and retries once. Committing to
// a remote source repository is a separate path, see RemoteCommitter.
package persist

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/session"
)

// SavedVia says where a save ended up.
type SavedVia string

const (
	ViaServer   SavedVia = "server"
	ViaDownload SavedVia = "download"
	ViaRemote   SavedVia = "remote"
	ViaLocal    SavedVia = "local"
)

// Result describes a completed save.
type Result struct {
	Via SavedVia
	// Location is the download path or the remote commit URL.
	Location string
	// Revision is the remote blob revision after a commit.
	Revision string
}

// Credentials are the admin user and password.
type Credentials struct {
	Username string
	Password string
}

// Token encodes the credentials for a Basic Authorization header.
func (c Credentials) Token() string {
	return base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
}

// Prompter asks the operator for credentials. ok is false when they cancel.
type Prompter interface {
	Credentials(ctx context.Context, reason string) (creds Credentials, ok bool, err error)
}

// TokenStore keeps the credential token between runs.
type TokenStore interface {
	Token(ctx context.Context) (string, bool, error)
	Login(ctx context.Context, token string) error
}

// Cache is the local copy of the working menu.
type Cache interface {
	CachedMenu(ctx context.Context) (*menu.Document, error)
	SetCachedMenu(ctx context.Context, doc *menu.Document) error
	ClearCachedMenu(ctx context.Context) error
}

// Options configures a Coordinator. ServerURL and Downloader are required.
type Options struct {
	ServerURL  string
	HTTPClient *http.Client
	Tokens     TokenStore
	Prompter   Prompter
	Downloader Downloader
	Cache      Cache
	Logger     *zap.Logger
}

// Coordinator saves and loads menus.
type Coordinator struct {
	server     string
	client     *http.Client
	tokens     TokenStore
	prompter   Prompter
	downloader Downloader
	cache      Cache
	logger     *zap.Logger
}

// New creates a Coordinator.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		server:     strings.TrimRight(opts.ServerURL, "/"),
		client:     opts.HTTPClient,
		tokens:     opts.Tokens,
		prompter:   opts.Prompter,
		downloader: opts.Downloader,
		cache:      opts.Cache,
		logger:     opts.Logger,
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 15 * time.Second}
	}
	if c.tokens == nil {
		c.tokens = &memoryTokens{}
	}
	if c.downloader == nil {
		c.downloader = FileDownloader{Dir: "."}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Save persists the session's working document. On success the session's
// snapshot is updated and every dirty flag cleared; on error it is untouched.
func (c *Coordinator) Save(ctx context.Context, s *session.Session) (Result, error) {
	body, err := menu.Marshal(s.Document())
	if err != nil {
		return Result{}, err
	}

	token, ok, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("reading stored token", zap.Error(err))
	}
	// entered holds a token typed in during this save. It is stored only
	// once the server accepts it.
	var entered string
	if !ok {
		if token, err = c.reauth(ctx, "login required to save"); err != nil {
			return Result{}, err
		}
		entered = token
	}

	retried := false
	for {
		status, msg, err := c.post(ctx, body, token)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			c.logger.Warn("save endpoint unreachable, downloading instead", zap.Error(err))
			return c.download(ctx, s, body)
		}

		switch {
		case status >= 200 && status < 300:
			if entered != "" {
				if err := c.tokens.Login(ctx, entered); err != nil {
					c.logger.Warn("storing credentials", zap.Error(err))
				}
			}
			s.MarkSaved()
			if c.cache != nil {
				if err := c.cache.ClearCachedMenu(ctx); err != nil {
					c.logger.Warn("clearing local draft", zap.Error(err))
				}
			}
			c.logger.Info("menu saved", zap.String("via", string(ViaServer)), zap.Int("tabs", len(s.Document().Tabs)))
			return Result{Via: ViaServer}, nil

		case status == http.StatusNotFound:
			c.logger.Warn("save endpoint not found, downloading instead", zap.String("server", c.server))
			return c.download(ctx, s, body)

		case status == http.StatusUnauthorized:
			if retried {
				return Result{}, &AuthError{Status: status, Message: msg}
			}
			retried = true
			token, err = c.reauth(ctx, "server rejected credentials")
			if errors.Is(err, ErrAuthRequired) {
				return Result{}, &AuthError{Status: status, Message: msg}
			}
			if err != nil {
				return Result{}, err
			}
			entered = token

		default:
			return Result{}, &ServerError{Status: status, Message: msg}
		}
	}
}

// SaveLocal stores the working document as a local draft. It does not count
// as a save: dirty flags are kept.
func (c *Coordinator) SaveLocal(ctx context.Context, s *session.Session) (Result, error) {
	if c.cache == nil {
		return Result{}, fmt.Errorf("no local storage configured")
	}
	if err := c.cache.SetCachedMenu(ctx, s.Document()); err != nil {
		return Result{}, err
	}
	return Result{Via: ViaLocal}, nil
}

// Download hands the working document to the Downloader and marks it saved.
func (c *Coordinator) Download(ctx context.Context, s *session.Session) (Result, error) {
	body, err := menu.Marshal(s.Document())
	if err != nil {
		return Result{}, err
	}
	return c.download(ctx, s, body)
}

func (c *Coordinator) download(ctx context.Context, s *session.Session, body []byte) (Result, error) {
	path, err := c.downloader.Download(menu.FileName, body)
	if err != nil {
		return Result{}, fmt.Errorf("download fallback: %w", err)
	}
	s.MarkSaved()
	// The server still has the old menu, keep ours as the local draft.
	if c.cache != nil {
		if err := c.cache.SetCachedMenu(ctx, s.Document()); err != nil {
			c.logger.Warn("caching downloaded menu", zap.Error(err))
		}
	}
	c.logger.Info("menu saved", zap.String("via", string(ViaDownload)), zap.String("path", path))
	return Result{Via: ViaDownload, Location: path}, nil
}

// reauth prompts for credentials and returns the resulting token. A missing
// prompter or a cancelled prompt matches ErrAuthRequired.
func (c *Coordinator) reauth(ctx context.Context, reason string) (string, error) {
	if c.prompter == nil {
		return "", &AuthError{Status: http.StatusUnauthorized, Message: reason}
	}
	creds, ok, err := c.prompter.Credentials(ctx, reason)
	if err != nil {
		return "", fmt.Errorf("reading credentials: %w", err)
	}
	if !ok || creds.Username == "" || creds.Password == "" {
		return "", ErrAuthRequired
	}
	return creds.Token(), nil
}

// Login checks creds against the server's admin page and stores the token
// when they are accepted.
func (c *Coordinator) Login(ctx context.Context, creds Credentials) error {
	token := creds.Token()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.server+"/admin", nil)
	if err != nil {
		return fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("contacting %s: %w", c.server, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Status: resp.StatusCode, Message: errorMessage(resp)}
	case resp.StatusCode != http.StatusOK:
		return &ServerError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}
	return c.tokens.Login(ctx, token)
}

// post sends the menu and returns the status plus the error message, if any.
// A non-nil error means the request never got a response.
func (c *Coordinator) post(ctx context.Context, body []byte, token string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+"/save-menu", bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("creating save request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("posting menu: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode, errorMessage(resp), nil
}

// Load returns the working menu: the local draft if there is a valid one,
// else the server's menu.json, else an empty menu.
func (c *Coordinator) Load(ctx context.Context) (*menu.Document, Source, error) {
	if c.cache != nil {
		doc, err := c.cache.CachedMenu(ctx)
		switch {
		case err != nil:
			c.logger.Warn("invalid local draft, falling back to server", zap.Error(err))
		case doc != nil:
			return doc, SourceCache, nil
		}
	}

	doc, err := c.Fetch(ctx)
	if err == nil {
		return doc, SourceServer, nil
	}
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	c.logger.Warn("could not load menu.json", zap.Error(err))
	return menu.Empty(), SourceEmpty, nil
}

// Source says where Load found the menu.
type Source string

const (
	SourceCache  Source = "local"
	SourceServer Source = "server"
	SourceEmpty  Source = "empty"
)

// Fetch downloads menu.json from the server, bypassing HTTP caches.
func (c *Coordinator) Fetch(ctx context.Context) (*menu.Document, error) {
	url := c.server + "/" + menu.FileName + "?t=" + strconv.FormatInt(time.Now().UnixNano(), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating fetch request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching menu: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ServerError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMenuSize))
	if err != nil {
		return nil, fmt.Errorf("reading menu: %w", err)
	}
	return menu.Parse(data)
}

// maxMenuSize mirrors the server's request body limit.
const maxMenuSize = 1 << 20

// errorMessage extracts {"error": "..."} or {"message": "..."} from a
// response body, falling back to the status text.
func errorMessage(resp *http.Response) string {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return http.StatusText(resp.StatusCode)
}

type memoryTokens struct{ token string }

func (m *memoryTokens) Token(context.Context) (string, bool, error) {
	return m.token, m.token != "", nil
}

func (m *memoryTokens) Login(_ context.Context, token string) error {
	m.token = token
	return nil
}
