package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/audit"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Put back the menu file saved before the last write",
	Long: `Swaps menu_file with its .bak backup. Running it twice undoes the restore.
A running server picks the change up through its file watcher.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		repo := repository(cfg, logger)
		saved, err := repo.Restore()
		if err != nil {
			return err
		}

		entry := audit.Entry{
			ActorID:      localActor(),
			Action:       audit.ActionMenuReverted,
			Source:       audit.SourceAdminForm,
			Summary:      "restored " + saved.Backup,
			PreviousHash: saved.PreviousHash,
			NewHash:      saved.NewHash,
		}
		if doc, err := repo.Load(); err == nil {
			entry.TabCount = len(doc.Tabs)
			entry.ItemCount = doc.ItemCount()
		}
		if err := recordAudit(cmd.Context(), cfg, entry); err != nil {
			logger.Warn("recording restore in audit trail", zap.Error(err))
		}

		fmt.Printf("Restored %s from %s.\n", repo.Path(), repo.BackupPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
