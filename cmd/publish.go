package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/editor"
	"github.com/mugo-bistro/mugo/internal/menu"
	"github.com/mugo-bistro/mugo/internal/session"
)

var publishCmd = &cobra.Command{
	Use:   "publish [menu.json]",
	Short: "Commit the menu to the configured source repository",
	Long: `Commits a menu file (by default the served menu_file) to the repository
named in the remote section of the config, keyed to the current revision so a
concurrent change is reported instead of overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		path := cfg.MenuPath()
		if len(args) == 1 {
			path = args[0]
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		client, err := newClient(cfg, logger, editor.PromptUI{})
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, stop := signalContext()
		defer stop()

		rc, err := client.Remote(ctx)
		if err != nil {
			return err
		}

		remote, rev, err := rc.Fetch(ctx)
		if err != nil {
			return fmt.Errorf("reading %s/%s: %w", cfg.Remote.Owner, cfg.Remote.Repo, err)
		}
		sess := session.New(remote)
		if err := sess.ApplyJSON(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if rev != "" && !sess.HasChanges() {
			fmt.Printf("%s/%s is already up to date.\n", cfg.Remote.Owner, cfg.Remote.Repo)
			return nil
		}

		message, _ := cmd.Flags().GetString("message")
		res, err := rc.CommitAt(ctx, sess, rev, message)
		if err != nil {
			return err
		}

		doc := sess.Document()
		if err := recordAudit(ctx, cfg, audit.Entry{
			ActorID:   localActor(),
			Action:    audit.ActionMenuCommitted,
			Source:    audit.SourceRemote,
			Summary:   fmt.Sprintf("%s@%s", cfg.Remote.Path, res.Revision),
			TabCount:  len(doc.Tabs),
			ItemCount: doc.ItemCount(),
			NewHash:   audit.Hash(mustMarshal(doc)),
		}); err != nil {
			logger.Warn("recording commit in audit trail", zap.Error(err))
		}

		fmt.Printf("Committed %s to %s/%s", cfg.Remote.Path, cfg.Remote.Owner, cfg.Remote.Repo)
		if res.Location != "" {
			fmt.Printf(": %s", res.Location)
		}
		fmt.Println()
		return nil
	},
}

// mustMarshal encodes doc the way the server writes it. Documents that
// came from Parse always encode.
func mustMarshal(doc *menu.Document) []byte {
	data, err := menu.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

func init() {
	publishCmd.Flags().StringP("message", "m", "", "commit message (default \"Update <path>\")")
	rootCmd.AddCommand(publishCmd)
}
