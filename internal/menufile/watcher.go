package menufile

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/menu"
)

// Change is reported when the menu file is edited outside the repository.
type Change struct {
	Doc  *menu.Document
	Hash string
}

// Watcher reports out-of-band edits to the menu file. It watches the
// parent directory because editors often replace files by rename.
type Watcher struct {
	repo     *Repository
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(Change)
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for repo's file. onChange runs on the
// watcher goroutine.
func NewWatcher(repo *Repository, debounce time.Duration, onChange func(Change), logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		repo:     repo,
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.watcher.Add(filepath.Dir(w.repo.Path())); err != nil {
		return err
	}
	w.running = true
	go w.run(ctx)
	return nil
}

// Stop ends the watch and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing file watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	target := filepath.Clean(w.repo.Path())
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			w.check()
		}
	}
}

func (w *Watcher) check() {
	data, err := w.repo.ReadRaw()
	if err != nil {
		w.logger.Warn("reading changed menu", zap.Error(err))
		return
	}
	hash := audit.Hash(data)
	if w.repo.WroteHash(hash) {
		return
	}
	doc, err := menu.Parse(data)
	if err != nil {
		w.logger.Warn("menu changed on disk but does not parse", zap.String("path", w.repo.Path()), zap.Error(err))
		return
	}

	// Treat the new content as known so a burst of identical events fires once.
	w.repo.mu.Lock()
	w.repo.lastHash = hash
	w.repo.mu.Unlock()

	w.logger.Info("menu changed on disk", zap.String("path", w.repo.Path()), zap.String("hash", hash))
	if w.onChange != nil {
		w.onChange(Change{Doc: doc, Hash: hash})
	}
}
