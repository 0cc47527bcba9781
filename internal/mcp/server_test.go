package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/menu"
)

const testJSON = `{"tabs":[
 {"id":"drinks","label":"Drinks","groups":[{"label":"Hot","items":[{"name":"Espresso","desc":"Arabica blend","price":"2.5"},{"name":"Cappuccino","desc":"","price":"3"}]}]},
 {"id":"food","label":"Food","title":"Kitchen","groups":[{"label":"Pizza","items":[{"name":"Margherita","desc":"Tomato, mozzarella","price":"8"}]},{"label":"Dolci","items":[]}]}
]}`

// mockSource implements MenuSource for testing.
type mockSource struct {
	doc *menu.Document
	err error
}

func (m *mockSource) Load() (*menu.Document, error) { return m.doc, m.err }

// mockHistory implements History for testing.
type mockHistory struct {
	entries []audit.Entry
	filter  audit.QueryFilter
}

func (m *mockHistory) Query(_ context.Context, filter audit.QueryFilter) ([]audit.Entry, error) {
	m.filter = filter
	return m.entries, nil
}

func testSource(t *testing.T) *mockSource {
	t.Helper()
	doc, err := menu.Parse([]byte(testJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return &mockSource{doc: doc}
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestToolDefinitions(t *testing.T) {
	// Verify tool names and required properties.
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"list_tabs", listTabsTool, "list_tabs"},
		{"get_tab", getTabTool, "get_tab"},
		{"search_items", searchItemsTool, "search_items"},
		{"get_menu", getMenuTool, "get_menu"},
		{"recent_changes", recentChangesTool, "recent_changes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	src := testSource(t)
	srv := NewServer(src, nil, "€")

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.source != src {
		t.Error("source not set correctly")
	}
	if srv.currency != "€" {
		t.Errorf("currency = %q, want %q", srv.currency, "€")
	}
}

func TestHandleListTabs(t *testing.T) {
	ctx := context.Background()

	t.Run("tabs", func(t *testing.T) {
		srv := NewServer(testSource(t), nil, "")
		result, err := srv.handleListTabs(ctx, call(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := extractText(result)
		for _, want := range []string{"Menu tabs (2)", "`drinks`: Drinks (1 groups, 2 items)", "`food`: Kitchen (2 groups, 1 items)"} {
			if !strings.Contains(text, want) {
				t.Errorf("output missing %q:\n%s", want, text)
			}
		}
	})

	t.Run("empty menu", func(t *testing.T) {
		srv := NewServer(&mockSource{doc: menu.Empty()}, nil, "")
		result, _ := srv.handleListTabs(ctx, call(nil))
		if result.IsError || !strings.Contains(extractText(result), "empty") {
			t.Errorf("unexpected result: %q", extractText(result))
		}
	})

	t.Run("load error", func(t *testing.T) {
		srv := NewServer(&mockSource{err: errors.New("disk gone")}, nil, "")
		result, err := srv.handleListTabs(ctx, call(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error when the menu cannot be read")
		}
	})
}

func TestHandleGetTab(t *testing.T) {
	srv := NewServer(testSource(t), nil, "€")
	ctx := context.Background()

	t.Run("markdown", func(t *testing.T) {
		result, err := srv.handleGetTab(ctx, call(map[string]any{"id": "drinks"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := extractText(result)
		for _, want := range []string{"# Drinks", "## Hot", "**Espresso** (€ 2.50): Arabica blend", "**Cappuccino** (€ 3.00)"} {
			if !strings.Contains(text, want) {
				t.Errorf("output missing %q:\n%s", want, text)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		result, _ := srv.handleGetTab(ctx, call(map[string]any{"id": "food", "format": "json"}))
		text := extractText(result)
		if !strings.Contains(text, `"title": "Kitchen"`) || !strings.Contains(text, `"items": []`) {
			t.Errorf("unexpected JSON:\n%s", text)
		}
	})

	t.Run("empty group", func(t *testing.T) {
		result, _ := srv.handleGetTab(ctx, call(map[string]any{"id": "food"}))
		if !strings.Contains(extractText(result), "_No items._") {
			t.Errorf("empty group not marked:\n%s", extractText(result))
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		result, _ := srv.handleGetTab(ctx, call(map[string]any{"id": "wine"}))
		if !result.IsError {
			t.Error("expected error for unknown tab")
		}
	})

	t.Run("missing id", func(t *testing.T) {
		result, _ := srv.handleGetTab(ctx, call(map[string]any{}))
		if !result.IsError {
			t.Error("expected error for missing id")
		}
	})
}

func TestHandleSearchItems(t *testing.T) {
	srv := NewServer(testSource(t), nil, "")
	ctx := context.Background()

	t.Run("by description", func(t *testing.T) {
		result, err := srv.handleSearchItems(ctx, call(map[string]any{"query": "MOZZARELLA"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := extractText(result)
		if !strings.Contains(text, "Found 1 item(s)") || !strings.Contains(text, "**Margherita** in `food` / Pizza (8.00)") {
			t.Errorf("unexpected output:\n%s", text)
		}
	})

	t.Run("limit", func(t *testing.T) {
		result, _ := srv.handleSearchItems(ctx, call(map[string]any{"query": "c", "limit": float64(1)}))
		text := extractText(result)
		if !strings.Contains(text, "showing 1") {
			t.Errorf("limit not applied:\n%s", text)
		}
	})

	t.Run("no match", func(t *testing.T) {
		result, _ := srv.handleSearchItems(ctx, call(map[string]any{"query": "sushi"}))
		if result.IsError || !strings.Contains(extractText(result), "No items match") {
			t.Errorf("unexpected result: %q", extractText(result))
		}
	})

	t.Run("missing query", func(t *testing.T) {
		result, _ := srv.handleSearchItems(ctx, call(map[string]any{"query": "  "}))
		if !result.IsError {
			t.Error("expected error for blank query")
		}
	})
}

func TestHandleGetMenu(t *testing.T) {
	srv := NewServer(testSource(t), nil, "")
	ctx := context.Background()

	result, _ := srv.handleGetMenu(ctx, call(nil))
	doc, err := menu.Parse([]byte(extractText(result)))
	if err != nil {
		t.Fatalf("get_menu returned invalid JSON: %v", err)
	}
	if !menu.Equal(doc, testSource(t).doc) {
		t.Error("get_menu JSON differs from the source")
	}

	result, _ = srv.handleGetMenu(ctx, call(map[string]any{"format": "yaml"}))
	if text := extractText(result); !strings.Contains(text, "label: Drinks") {
		t.Errorf("unexpected YAML:\n%s", text)
	}

	result, _ = srv.handleGetMenu(ctx, call(map[string]any{"format": "xml"}))
	if !result.IsError {
		t.Error("expected error for unsupported format")
	}
}

func TestHandleRecentChanges(t *testing.T) {
	ctx := context.Background()
	hist := &mockHistory{entries: []audit.Entry{{
		Timestamp: time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC),
		ActorID:   "admin",
		Action:    audit.ActionMenuSaved,
		Source:    audit.SourceSaveEndpoint,
		Summary:   "2 tabs, 3 items",
	}}}
	srv := NewServer(testSource(t), hist, "")

	result, err := srv.handleRecentChanges(ctx, call(map[string]any{"limit": float64(5)}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := extractText(result)
	if !strings.Contains(text, "| 2026-03-01T18:30:00Z | admin | menu_saved | save-menu | 2 tabs, 3 items |") {
		t.Errorf("unexpected output:\n%s", text)
	}
	if hist.filter.Limit != 5 {
		t.Errorf("limit = %d, want 5", hist.filter.Limit)
	}

	hist.entries = nil
	result, _ = srv.handleRecentChanges(ctx, call(nil))
	if !strings.Contains(extractText(result), "No changes recorded") {
		t.Errorf("unexpected output: %q", extractText(result))
	}
}

// extractText gets the text content from a CallToolResult.
func extractText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
