package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/db"
	mcpserver "github.com/mugo-bistro/mugo/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing the menu to AI agents",
	Long: `Starts a Model Context Protocol (MCP) server on stdio with read-only tools
to list tabs, read a tab, search items, export the menu and list recent changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Stdout carries the protocol; the logger writes to stderr.
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		var history mcpserver.History
		if _, err := os.Stat(cfg.DatabasePath()); err == nil {
			database, err := db.Open(cfg.DatabasePath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not open %s: %v\n", cfg.DatabasePath(), err)
			} else {
				defer database.Close()
				history = audit.NewStore(database)
			}
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "mugo MCP server started on stdio (menu=%s)\n", cfg.MenuPath())

		srv := mcpserver.NewServer(repository(cfg, logger), history, cfg.Currency)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
