package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the menu site, the save endpoint and the admin page",
	Long: `Starts the HTTP server: the storefront at /, menu.json, POST /save-menu
and the /admin editor (both behind basic auth), the audit API, live reload over
websockets and the static files of site_dir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
			cfg.Watch = false
		}

		srv, err := app.BuildServer(cfg, logger)
		if err != nil {
			return fmt.Errorf("starting server: %w", err)
		}
		defer srv.Close()

		if cfg.UsesDefaultPassword() {
			logger.Warn("admin password is the built-in default; set MUGO_ADMIN_PASS or admin_pass")
		}

		ctx, stop := signalContext()
		defer stop()

		fmt.Fprintf(os.Stderr, "mugo %s serving %s on http://localhost:%d\n", Version, cfg.MenuPath(), cfg.Port)
		fmt.Fprintf(os.Stderr, "  Admin: http://localhost:%d/admin\n", cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.DatabasePath())

		if err := srv.Run(ctx); err != nil {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 3000, "port to listen on (overrides config)")
	serveCmd.Flags().Bool("no-watch", false, "do not watch menu.json for external edits")
	rootCmd.AddCommand(serveCmd)
}
