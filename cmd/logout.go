package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mugo-bistro/mugo/internal/app"
	"github.com/mugo-bistro/mugo/internal/localstore"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored server credentials",
	Long: `Removes the stored admin token. With --remote the repository token is
removed as well; with --draft any unsaved menu draft is discarded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		client, err := app.BuildClient(cfg, logger, app.ClientOptions{})
		if err != nil {
			return err
		}
		defer client.Close()

		ctx := cmd.Context()
		if err := client.Store.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Signed out.")

		if remote, _ := cmd.Flags().GetBool("remote"); remote {
			if err := client.Store.Delete(ctx, localstore.KeyRemoteToken); err != nil {
				return err
			}
			fmt.Println("Repository token removed.")
		}
		if draft, _ := cmd.Flags().GetBool("draft"); draft {
			if err := client.Store.ClearCachedMenu(ctx); err != nil {
				return err
			}
			fmt.Println("Local draft discarded.")
		}
		return nil
	},
}

func init() {
	logoutCmd.Flags().Bool("remote", false, "also remove the repository API token")
	logoutCmd.Flags().Bool("draft", false, "also discard the locally cached menu draft")
	rootCmd.AddCommand(logoutCmd)
}
