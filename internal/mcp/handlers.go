package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/menu"
)

func (s *Server) load() (*menu.Document, *mcp.CallToolResult) {
	doc, err := s.source.Load()
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to read menu: %v", err))
	}
	return doc, nil
}

// handleListTabs lists every tab of the menu.
func (s *Server) handleListTabs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, errResult := s.load()
	if errResult != nil {
		return errResult, nil
	}
	if len(doc.Tabs) == 0 {
		return mcp.NewToolResultText("The menu is empty. Add tabs with `mugo edit` or the /admin page."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Menu tabs (%d)\n\n", len(doc.Tabs))
	for _, t := range doc.Tabs {
		items := 0
		for _, g := range t.Groups {
			items += len(g.Items)
		}
		fmt.Fprintf(&b, "- `%s`: %s (%d groups, %d items)\n", t.ID, t.DisplayTitle(), len(t.Groups), items)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleGetTab returns one tab as markdown or JSON.
func (s *Server) handleGetTab(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	doc, errResult := s.load()
	if errResult != nil {
		return errResult, nil
	}
	i := doc.TabIndex(id)
	if i < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("No tab with id %q. Use list_tabs to see the available ids.", id)), nil
	}
	tab := doc.Tabs[i]

	if request.GetString("format", "markdown") == "json" {
		data, err := json.MarshalIndent(tab, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding tab: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultText(s.formatTab(tab)), nil
}

func (s *Server) formatTab(t menu.Tab) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", t.DisplayTitle())
	for _, g := range t.Groups {
		fmt.Fprintf(&b, "\n## %s\n\n", g.Label)
		if len(g.Items) == 0 {
			b.WriteString("_No items._\n")
		}
		for _, it := range g.Items {
			fmt.Fprintf(&b, "- **%s**", it.Name)
			if it.Price != "" {
				fmt.Fprintf(&b, " (%s)", menu.FormatPrice(it.Price, s.currency))
			}
			if it.Desc != "" {
				fmt.Fprintf(&b, ": %s", it.Desc)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// handleSearchItems finds items by name or description.
func (s *Server) handleSearchItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}

	doc, errResult := s.load()
	if errResult != nil {
		return errResult, nil
	}

	matches := doc.Find(query)
	if len(matches) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No items match %q.", query)), nil
	}

	total := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d item(s) matching %q", total, query)
	if total > len(matches) {
		fmt.Fprintf(&b, ", showing %d", len(matches))
	}
	b.WriteString(":\n\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "- **%s** in `%s` / %s", m.Entry.Name, m.TabID, m.GroupLabel)
		if m.Entry.Price != "" {
			fmt.Fprintf(&b, " (%s)", menu.FormatPrice(m.Entry.Price, s.currency))
		}
		if m.Entry.Desc != "" {
			fmt.Fprintf(&b, ": %s", m.Entry.Desc)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleGetMenu returns the whole document.
func (s *Server) handleGetMenu(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, errResult := s.load()
	if errResult != nil {
		return errResult, nil
	}

	var (
		data []byte
		err  error
	)
	switch format := request.GetString("format", "json"); format {
	case "json":
		data, err = menu.Marshal(doc)
	case "yaml":
		data, err = menu.MarshalYAML(doc)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q (use json or yaml)", format)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding menu: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleRecentChanges lists the latest audit entries.
func (s *Server) handleRecentChanges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	entries, err := s.history.Query(ctx, audit.QueryFilter{Limit: limit})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading history: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No changes recorded yet."), nil
	}

	var b strings.Builder
	b.WriteString("| When | Who | Action | Via | Summary |\n")
	b.WriteString("|------|-----|--------|-----|---------|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			e.Timestamp.UTC().Format(time.RFC3339), e.ActorID, e.Action, e.Source, e.Summary)
	}
	return mcp.NewToolResultText(b.String()), nil
}
