// Package menufile owns the menu.json file served by the site: reads,
// backed-up writes, and a watcher for edits made outside the server.
package menufile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/menu"
)

// BackupSuffix is appended to the menu path for the pre-save copy.
const BackupSuffix = ".bak"

// Saved describes a completed write.
type Saved struct {
	PreviousHash string
	NewHash      string
	// Backup is the path of the previous version, empty if there was none.
	Backup string
}

// Repository serialises access to one menu file.
type Repository struct {
	path   string
	logger *zap.Logger

	mu       sync.Mutex
	lastHash string
}

// NewRepository returns a repository for the file at path.
func NewRepository(path string, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{path: path, logger: logger}
}

// Path returns the menu file path.
func (r *Repository) Path() string { return r.path }

// BackupPath returns the path of the backup copy.
func (r *Repository) BackupPath() string { return r.path + BackupSuffix }

// ReadRaw returns the file bytes. A missing file reads as an empty menu.
func (r *Repository) ReadRaw() ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return menu.Marshal(menu.Empty())
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.path, err)
	}
	return data, nil
}

// Load parses the menu file. A missing file loads as an empty menu.
func (r *Repository) Load() (*menu.Document, error) {
	data, err := r.ReadRaw()
	if err != nil {
		return nil, err
	}
	doc, err := menu.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	return doc, nil
}

// Save copies the current file to the backup path, then atomically
// replaces it with doc. Concurrent saves are serialised; the last one wins.
func (r *Repository) Save(doc *menu.Document) (Saved, error) {
	data, err := menu.Marshal(doc)
	if err != nil {
		return Saved{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var saved Saved
	prev, err := os.ReadFile(r.path)
	switch {
	case err == nil:
		if err := os.WriteFile(r.BackupPath(), prev, 0o644); err != nil {
			return Saved{}, fmt.Errorf("writing backup: %w", err)
		}
		saved.PreviousHash = audit.Hash(prev)
		saved.Backup = r.BackupPath()
	case !errors.Is(err, fs.ErrNotExist):
		return Saved{}, fmt.Errorf("reading %s: %w", r.path, err)
	}

	if err := writeAtomic(r.path, data); err != nil {
		return Saved{}, err
	}
	saved.NewHash = audit.Hash(data)
	r.lastHash = saved.NewHash

	r.logger.Debug("menu written",
		zap.String("path", r.path),
		zap.String("previous", saved.PreviousHash),
		zap.String("new", saved.NewHash),
	)
	return saved, nil
}

// Restore puts the backup back in place. The current file becomes the new
// backup, so calling Restore twice is a no-op overall.
func (r *Repository) Restore() (Saved, error) {
	r.mu.Lock()
	bak, err := os.ReadFile(r.BackupPath())
	r.mu.Unlock()
	if err != nil {
		return Saved{}, fmt.Errorf("reading backup: %w", err)
	}
	doc, err := menu.Parse(bak)
	if err != nil {
		return Saved{}, fmt.Errorf("backup: %w", err)
	}
	return r.Save(doc)
}

// WroteHash reports whether hash is the content of this repository's most
// recent write, so a watcher can ignore its own echoes.
func (r *Repository) WroteHash(hash string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return hash != "" && hash == r.lastHash
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".menu-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
