package persist

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/session"
)

// DefaultAPIURL is the contents API used when RemoteConfig.APIURL is empty.
const DefaultAPIURL = "https://api.github.com"

// RemoteConfig locates the menu file in a hosted source repository.
type RemoteConfig struct {
	APIURL string
	Owner  string
	Repo   string
	Branch string
	Path   string
}

// Validate checks that the repository coordinates are complete.
func (c RemoteConfig) Validate() error {
	var missing []string
	if c.Owner == "" {
		missing = append(missing, "owner")
	}
	if c.Repo == "" {
		missing = append(missing, "repo")
	}
	if c.Path == "" {
		missing = append(missing, "path")
	}
	if len(missing) > 0 {
		return fmt.Errorf("remote: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// RemoteCommitter writes the menu to a source repository through its
// contents API: read the current revision, then write keyed to it.
type RemoteCommitter struct {
	cfg    RemoteConfig
	client *http.Client
	logger *zap.Logger
}

// NewRemoteCommitter authenticates every request with token.
func NewRemoteCommitter(ctx context.Context, cfg RemoteConfig, token string, logger *zap.Logger) *RemoteCommitter {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.Path = strings.TrimLeft(cfg.Path, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &RemoteCommitter{
		cfg:    cfg,
		client: oauth2.NewClient(ctx, src),
		logger: logger,
	}
}

type contentsFile struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type contentsPut struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type contentsPutResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
	} `json:"commit"`
}

func (rc *RemoteCommitter) contentsURL(withRef bool) string {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		rc.cfg.APIURL, url.PathEscape(rc.cfg.Owner), url.PathEscape(rc.cfg.Repo), escapePath(rc.cfg.Path))
	if withRef && rc.cfg.Branch != "" {
		u += "?ref=" + url.QueryEscape(rc.cfg.Branch)
	}
	return u
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// get returns the current file, or nil if it does not exist yet.
func (rc *RemoteCommitter) get(ctx context.Context) (*contentsFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.contentsURL(true), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reading remote %s: %w", rc.cfg.Path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Status: resp.StatusCode, Message: errorMessage(resp)}
	case resp.StatusCode != http.StatusOK:
		return nil, &ServerError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	var f contentsFile
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding remote file: %w", err)
	}
	return &f, nil
}

// Revision returns the current revision marker, or "" if the file is missing.
func (rc *RemoteCommitter) Revision(ctx context.Context) (string, error) {
	f, err := rc.get(ctx)
	if err != nil || f == nil {
		return "", err
	}
	return f.SHA, nil
}

// Fetch returns the committed document and its revision.
func (rc *RemoteCommitter) Fetch(ctx context.Context) (*menu.Document, string, error) {
	f, err := rc.get(ctx)
	if err != nil {
		return nil, "", err
	}
	if f == nil {
		return menu.Empty(), "", nil
	}
	// The API wraps base64 at 60 columns.
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(f.Content, "\n", ""))
	if err != nil {
		return nil, "", fmt.Errorf("decoding remote content: %w", err)
	}
	doc, err := menu.Parse(data)
	if err != nil {
		return nil, "", err
	}
	return doc, f.SHA, nil
}

// Commit writes the session's document as a new commit on the configured
// branch, keyed to the revision current at the time of the call. On success
// the session is marked saved.
func (rc *RemoteCommitter) Commit(ctx context.Context, s *session.Session, message string) (Result, error) {
	if err := rc.cfg.Validate(); err != nil {
		return Result{}, err
	}
	rev, err := rc.Revision(ctx)
	if err != nil {
		return Result{}, err
	}
	return rc.CommitAt(ctx, s, rev, message)
}

// CommitAt writes the session's document only if the file is still at rev,
// the revision the caller read it at. An empty rev creates the file. If the
// file has moved on the result is a *ConflictError and the session keeps its
// changes.
func (rc *RemoteCommitter) CommitAt(ctx context.Context, s *session.Session, rev, message string) (Result, error) {
	if err := rc.cfg.Validate(); err != nil {
		return Result{}, err
	}
	body, err := menu.Marshal(s.Document())
	if err != nil {
		return Result{}, err
	}

	if message == "" {
		message = "Update " + rc.cfg.Path
	}
	payload, err := json.Marshal(contentsPut{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(body),
		Branch:  rc.cfg.Branch,
		SHA:     rev,
	})
	if err != nil {
		return Result{}, fmt.Errorf("encoding commit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, rc.contentsURL(false), bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := rc.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("committing %s: %w", rc.cfg.Path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{}, &AuthError{Status: resp.StatusCode, Message: errorMessage(resp)}
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return Result{}, &ConflictError{Path: rc.cfg.Path, Revision: rev, Message: errorMessage(resp)}
	default:
		return Result{}, &ServerError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	var out contentsPutResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(data, &out); err != nil {
		rc.logger.Warn("decoding commit response", zap.Error(err))
	}

	s.MarkSaved()
	rc.logger.Info("menu committed",
		zap.String("repo", rc.cfg.Owner+"/"+rc.cfg.Repo),
		zap.String("path", rc.cfg.Path),
		zap.String("commit", out.Commit.SHA),
	)
	return Result{Via: ViaRemote, Location: out.Commit.HTMLURL, Revision: out.Content.SHA}, nil
}
