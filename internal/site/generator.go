// Package site builds a static copy of the storefront that can be hosted
// without the mugo server.
package site

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/assets"
	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/progress"
	"github.com/mugo-bistro/mugo/internal/render"
)

// Generated file names in the output directory.
const (
	IndexFile       = "index.html"
	SearchIndexFile = "search-index.json"
	AssetsDir       = "assets"
)

// Generator renders a menu into a static site.
type Generator struct {
	// SiteDir holds extra files (images, favicon) copied to the output.
	// Empty means none.
	SiteDir   string
	OutputDir string
	Title     string
	Render    render.Options
	// Deny lists doublestar patterns of SiteDir files never copied.
	Deny     []string
	Reporter progress.Reporter
	Logger   *zap.Logger
}

// Stats summarises a build.
type Stats struct {
	Tabs   int
	Items  int
	Copied int
}

// Build writes index.html, menu.json, the search index, the assets and the
// SiteDir files to OutputDir.
func (g *Generator) Build(doc *menu.Document) (Stats, error) {
	if g.OutputDir == "" {
		return Stats{}, fmt.Errorf("output dir is required")
	}
	rep := g.Reporter
	if rep == nil {
		rep = progress.Nop{}
	}
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	extra, err := g.siteFiles()
	if err != nil {
		return Stats{}, err
	}

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("creating output dir: %w", err)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{IndexFile, func() error { return g.writeIndex(doc) }},
		{menu.FileName, func() error { return g.writeMenu(doc) }},
		{SearchIndexFile, func() error {
			return WriteSearchIndex(BuildSearchIndex(doc), filepath.Join(g.OutputDir, SearchIndexFile))
		}},
		{AssetsDir, g.writeAssets},
	}

	rep.Start(len(steps) + len(extra))
	n := 0
	for _, step := range steps {
		n++
		rep.Update(n, step.name)
		if err := step.run(); err != nil {
			return Stats{}, fmt.Errorf("writing %s: %w", step.name, err)
		}
	}
	for _, rel := range extra {
		n++
		rep.Update(n, rel)
		if err := copyFile(filepath.Join(g.SiteDir, rel), filepath.Join(g.OutputDir, rel)); err != nil {
			return Stats{}, fmt.Errorf("copying %s: %w", rel, err)
		}
	}
	rep.Finish()

	stats := Stats{Tabs: len(doc.Tabs), Items: doc.ItemCount(), Copied: len(extra)}
	logger.Info("site built",
		zap.String("output", g.OutputDir),
		zap.Int("tabs", stats.Tabs),
		zap.Int("items", stats.Items),
		zap.Int("copied", stats.Copied),
	)
	return stats, nil
}

func (g *Generator) writeIndex(doc *menu.Document) error {
	title := g.Title
	if title == "" {
		title = "Menu"
	}
	page := render.Page(title, render.Storefront(doc, g.Render), render.PageOptions{
		Stylesheets: []string{AssetsDir + "/style.css"},
		Scripts:     []string{AssetsDir + "/menu.js"},
		BodyClass:   "storefront static",
	})
	var buf bytes.Buffer
	if err := render.Write(&buf, page); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(g.OutputDir, IndexFile), buf.Bytes(), 0o644)
}

func (g *Generator) writeMenu(doc *menu.Document) error {
	data, err := menu.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(g.OutputDir, menu.FileName), data, 0o644)
}

func (g *Generator) writeAssets() error {
	return fs.WalkDir(assets.FS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(assets.FS(), path)
		if err != nil {
			return err
		}
		out := filepath.Join(g.OutputDir, AssetsDir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		return os.WriteFile(out, data, 0o644)
	})
}

// siteFiles lists the SiteDir files to copy, relative and slash-separated.
// Generated files, the output directory and denied paths are skipped.
func (g *Generator) siteFiles() ([]string, error) {
	if g.SiteDir == "" {
		return nil, nil
	}
	outAbs, _ := filepath.Abs(g.OutputDir)
	generated := map[string]bool{IndexFile: true, menu.FileName: true, SearchIndexFile: true}

	var files []string
	err := filepath.WalkDir(g.SiteDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if abs, _ := filepath.Abs(path); abs == outAbs {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(g.SiteDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if g.denied(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || generated[rel] || strings.HasPrefix(rel, AssetsDir+"/") {
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking site dir: %w", err)
	}
	return files, nil
}

func (g *Generator) denied(rel string) bool {
	base := filepath.Base(rel)
	for _, pattern := range g.Deny {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
