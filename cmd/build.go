package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mugo-bistro/mugo/internal/progress"
	"github.com/mugo-bistro/mugo/internal/render"
	"github.com/mugo-bistro/mugo/internal/server"
	"github.com/mugo-bistro/mugo/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a static copy of the menu site",
	Long: `Renders the storefront to index.html and writes it, menu.json, a search
index, the stylesheet and script, and the other files of site_dir to build_dir.
The result can be hosted on any static file host.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		outputDir, _ := cmd.Flags().GetString("output")
		if outputDir == "" {
			outputDir = cfg.BuildDir
		}

		doc, err := repository(cfg, logger).Load()
		if err != nil {
			return fmt.Errorf("loading %s: %w", cfg.MenuPath(), err)
		}

		deny := cfg.StaticDeny
		if deny == nil {
			deny = server.DefaultStaticDeny
		}
		g := &site.Generator{
			SiteDir:   cfg.SiteDir,
			OutputDir: outputDir,
			Title:     cfg.RestaurantName,
			Render: render.Options{
				Markdown: cfg.MarkdownDescriptions,
				Currency: cfg.Currency,
			},
			Deny:     deny,
			Reporter: progress.NewReporter("Building site"),
			Logger:   logger.Named("site"),
		}
		stats, err := g.Build(doc)
		if err != nil {
			return fmt.Errorf("building site: %w", err)
		}

		fmt.Printf("Static site built: %s (%d tabs, %d items, %d files copied)\n",
			outputDir, stats.Tabs, stats.Items, stats.Copied)
		return nil
	},
}

func init() {
	buildCmd.Flags().String("output", "", "override output directory (defaults to build_dir)")
	rootCmd.AddCommand(buildCmd)
}
