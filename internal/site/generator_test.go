package site

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/progress"
	"github.com/mugo-bistro/mugo/internal/render"
)

const testJSON = `{"tabs":[
 {"id":"drinks","label":"Drinks","groups":[{"label":"Hot","items":[{"name":"Espresso","desc":"Short & strong","price":"2.5"}]}]},
 {"id":"food","label":"Food","title":"Kitchen","groups":[{"label":"Pizza","items":[{"name":"Margherita","desc":"","price":"8"},{"name":"Diavola","desc":"","price":"9,50"}]}]}
]}`

func testDoc(t *testing.T) *menu.Document {
	t.Helper()
	doc, err := menu.Parse([]byte(testJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type countingReporter struct {
	total, updates int
	finished       bool
	messages       []string
}

func (r *countingReporter) Start(total int) { r.total = total }
func (r *countingReporter) Update(_ int, msg string) {
	r.updates++
	r.messages = append(r.messages, msg)
}
func (r *countingReporter) Finish() { r.finished = true }

var _ progress.Reporter = (*countingReporter)(nil)

func TestBuild(t *testing.T) {
	siteDir := t.TempDir()
	writeFile(t, filepath.Join(siteDir, "img", "logo.png"), "png")
	writeFile(t, filepath.Join(siteDir, "favicon.ico"), "ico")
	writeFile(t, filepath.Join(siteDir, "menu.json.bak"), "{}")
	writeFile(t, filepath.Join(siteDir, ".env"), "SECRET=1")
	writeFile(t, filepath.Join(siteDir, "menu.json"), "{}")
	writeFile(t, filepath.Join(siteDir, "dist", "old.html"), "old")

	out := filepath.Join(siteDir, "dist")
	rep := &countingReporter{}
	g := &Generator{
		SiteDir:   siteDir,
		OutputDir: out,
		Title:     "Trattoria",
		Render:    render.Options{Currency: "€"},
		Deny:      []string{"**/*.bak", "**/.*"},
		Reporter:  rep,
	}

	stats, err := g.Build(testDoc(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if stats.Tabs != 2 || stats.Items != 3 || stats.Copied != 2 {
		t.Errorf("stats = %+v, want 2 tabs, 3 items, 2 copied", stats)
	}
	if rep.total != 6 || rep.updates != 6 || !rep.finished {
		t.Errorf("reporter total=%d updates=%d finished=%v", rep.total, rep.updates, rep.finished)
	}

	index, err := os.ReadFile(filepath.Join(out, IndexFile))
	if err != nil {
		t.Fatalf("reading index: %v", err)
	}
	html := string(index)
	for _, want := range []string{
		"<title>Trattoria</title>",
		`href="assets/style.css"`,
		`src="assets/menu.js"`,
		`class="storefront static"`,
		"Margherita",
		"€ 9.50",
		"Short &amp; strong",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("index.html missing %q", want)
		}
	}

	data, err := os.ReadFile(filepath.Join(out, menu.FileName))
	if err != nil {
		t.Fatalf("reading menu.json: %v", err)
	}
	doc, err := menu.Parse(data)
	if err != nil {
		t.Fatalf("parsing written menu: %v", err)
	}
	if !menu.Equal(doc, testDoc(t)) {
		t.Error("written menu.json differs from the source document")
	}

	for _, rel := range []string{"img/logo.png", "favicon.ico", "assets/style.css", "assets/menu.js", SearchIndexFile} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected %s in output: %v", rel, err)
		}
	}
	for _, rel := range []string{"menu.json.bak", ".env", "dist"} {
		if _, err := os.Stat(filepath.Join(out, rel)); err == nil {
			t.Errorf("%s should not be copied", rel)
		}
	}
}

func TestBuildWithoutSiteDir(t *testing.T) {
	out := t.TempDir()
	g := &Generator{OutputDir: out}

	stats, err := g.Build(menu.Empty())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.Copied != 0 || stats.Tabs != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if _, err := os.Stat(filepath.Join(out, IndexFile)); err != nil {
		t.Errorf("index.html not written: %v", err)
	}
}

func TestBuildRequiresOutputDir(t *testing.T) {
	if _, err := (&Generator{}).Build(menu.Empty()); err == nil {
		t.Error("expected error for empty output dir")
	}
}

func TestBuildSearchIndex(t *testing.T) {
	entries := BuildSearchIndex(testDoc(t))
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	first := entries[0]
	if first.Tab != "drinks" || first.Group != "Hot" || first.Name != "Espresso" || first.Price != "2.50" {
		t.Errorf("first entry = %+v", first)
	}
	if entries[2].Name != "Diavola" || entries[2].Price != "9.50" {
		t.Errorf("last entry = %+v", entries[2])
	}
}

func TestWriteSearchIndexEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), SearchIndexFile)
	if err := WriteSearchIndex(BuildSearchIndex(menu.Empty()), path); err != nil {
		t.Fatalf("WriteSearchIndex: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entries []SearchEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty index = %s, want []", data)
	}
}
