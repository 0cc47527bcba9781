package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mugo-bistro/mugo/internal/app"
	"github.com/mugo-bistro/mugo/internal/editor"
	"github.com/mugo-bistro/mugo/internal/persist"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the menu interactively in the terminal",
	Long: `Opens the menu from the running server (or the local draft, if one was
saved) and edits it tab by tab. Saving posts to the server; when the server is
unreachable the menu is written to download_dir instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ui := editor.PromptUI{}
		client, err := newClient(cfg, logger, ui)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, stop := signalContext()
		defer stop()

		sess, src, err := client.OpenSession(ctx)
		if err != nil {
			return fmt.Errorf("loading menu: %w", err)
		}
		switch src {
		case persist.SourceCache:
			ui.Printf("Resuming the local draft.\n")
		case persist.SourceEmpty:
			ui.Printf("No menu found at %s; starting from an empty menu.\n", cfg.ServerURL)
		}

		opts := editor.Options{
			UI:       ui,
			Saver:    client.Coordinator,
			Currency: cfg.Currency,
			Logger:   logger.Named("editor"),
		}
		if cfg.Remote.Enabled() {
			rc, err := client.Remote(ctx)
			switch {
			case err == nil:
				opts.Committer = rc
			case errors.Is(err, app.ErrRemoteNotConfigured), errors.Is(err, persist.ErrAuthRequired):
				ui.Printf("Repository commits disabled: %v\n", err)
			default:
				return err
			}
		}

		if err := editor.New(sess, opts).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
