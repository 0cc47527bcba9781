package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/editor"
	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/persist"
	"github.com/mugo-bistro/mugo/internal/session"
)

var saveCmd = &cobra.Command{
	Use:   "save <menu.json>",
	Short: "Save a menu file to the server",
	Long: `Posts the given menu JSON to the server's save endpoint with the stored
credentials, prompting for them on a 401. When the server cannot be reached
the menu is written to download_dir instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		ui := editor.PromptUI{}
		client, err := newClient(cfg, logger, ui)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, stop := signalContext()
		defer stop()

		// Compare against the published menu so unchanged saves are skipped.
		published, err := client.Coordinator.Fetch(ctx)
		online := err == nil
		if !online {
			logger.Debug("server menu unavailable", zap.Error(err))
			published = menu.Empty()
		}
		sess := session.New(published)
		if err := sess.ApplyJSON(data); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		changed := len(sess.DirtyTabs())

		var res persist.Result
		switch {
		case mustBool(cmd, "local"):
			res, err = client.Coordinator.SaveLocal(ctx, sess)
		case mustBool(cmd, "download"):
			res, err = client.Coordinator.Download(ctx, sess)
		default:
			if online && !sess.HasChanges() {
				fmt.Println("Menu unchanged, nothing to save.")
				return nil
			}
			res, err = client.Coordinator.Save(ctx, sess)
		}
		if err != nil {
			return err
		}

		switch res.Via {
		case persist.ViaServer:
			fmt.Printf("Menu saved to %s (%d tab(s) changed).\n", cfg.ServerURL, changed)
		case persist.ViaDownload:
			fmt.Printf("Menu written to %s\n", res.Location)
		case persist.ViaLocal:
			fmt.Println("Draft stored locally; `mugo edit` will resume it.")
		}
		return nil
	},
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func init() {
	saveCmd.Flags().Bool("local", false, "store as the local draft instead of saving")
	saveCmd.Flags().Bool("download", false, "write to download_dir without contacting the server")
	saveCmd.MarkFlagsMutuallyExclusive("local", "download")
	rootCmd.AddCommand(saveCmd)
}
