package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Downloader hands a file to the operator when the server cannot take it.
type Downloader interface {
	Download(name string, data []byte) (string, error)
}

// FileDownloader writes downloads into a directory, never overwriting:
// a second "menu.json" becomes "menu (1).json".
type FileDownloader struct {
	Dir string
}

// Download writes data and returns the path it was written to.
func (d FileDownloader) Download(name string, data []byte) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 0; n < 1000; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("too many existing downloads named %s in %s", name, dir)
}
