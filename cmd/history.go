package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mugo-bistro/mugo/internal/audit"
	"github.com/mugo-bistro/mugo/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent menu saves, commits and restores",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if _, err := os.Stat(cfg.DatabasePath()); err != nil {
			fmt.Println("No history yet.")
			return nil
		}
		database, err := db.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer database.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		action, _ := cmd.Flags().GetString("action")
		filter := audit.QueryFilter{Limit: limit, Action: audit.Action(action)}
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			t := time.Now().Add(-since)
			filter.Since = &t
		}

		entries, err := audit.NewStore(database).Query(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No history yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTION\tSOURCE\tACTOR\tTABS\tITEMS\tSUMMARY")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04"),
				e.Action, e.Source, e.ActorID, e.TabCount, e.ItemCount, e.Summary)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyCmd.Flags().String("action", "", "only show one action (menu_saved, menu_committed, ...)")
	historyCmd.Flags().Duration("since", 0, "only show entries newer than this (e.g. 72h)")
	rootCmd.AddCommand(historyCmd)
}
