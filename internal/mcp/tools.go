package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listTabsTool defines the list_tabs MCP tool.
var listTabsTool = mcp.NewTool("list_tabs",
	mcp.WithDescription("List the menu's tabs (categories) with their ids, labels and item counts."),
)

// getTabTool defines the get_tab MCP tool.
var getTabTool = mcp.NewTool("get_tab",
	mcp.WithDescription("Get every group and item of one menu tab."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Tab id as returned by list_tabs"),
	),
	mcp.WithString("format",
		mcp.Description("Output format (default markdown)"),
		mcp.Enum("markdown", "json"),
	),
)

// searchItemsTool defines the search_items MCP tool.
var searchItemsTool = mcp.NewTool("search_items",
	mcp.WithDescription("Find menu items whose name or description contains the query (case-insensitive)."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Text to look for, e.g. an ingredient"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 20)"),
	),
)

// getMenuTool defines the get_menu MCP tool.
var getMenuTool = mcp.NewTool("get_menu",
	mcp.WithDescription("Get the whole menu document as JSON or YAML."),
	mcp.WithString("format",
		mcp.Description("Output format (default json)"),
		mcp.Enum("json", "yaml"),
	),
)

// recentChangesTool defines the recent_changes MCP tool.
var recentChangesTool = mcp.NewTool("recent_changes",
	mcp.WithDescription("List the most recent saves of the menu: who, when, through which path, and what changed."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 10)"),
	),
)
