package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mugo-bistro/mugo/internal/editor"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the menu server and remember the credentials",
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

		prompter := editor.Prompter{UI: ui, DefaultUser: cfg.AdminUser}
		creds, ok, err := prompter.Credentials(ctx, "sign in to "+cfg.ServerURL)
		if err != nil {
			if errors.Is(err, editor.ErrCancelled) {
				return nil
			}
			return err
		}
		if !ok {
			return nil
		}
		if err := client.Coordinator.Login(ctx, creds); err != nil {
			return err
		}
		fmt.Printf("Signed in to %s as %s.\n", cfg.ServerURL, creds.Username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
