package main

import (
	"fmt"
	"os"

	"github.com/Zuo-Peng/archive-threads/internal/index"
	"github.com/Zuo-Peng/archive-threads/internal/parse"
	"github.com/Zuo-Peng/archive-threads/internal/pipeline"
	"github.com/spf13/cobra"
)

func indexCmd() *cobra.Command {
	var owner ownerFlags
	var force, chronological bool
	var workers int

	cmd := &cobra.Command{
		Use:   "index <archive-or-dir>...",
		Short: "Rebuild threads from archives and store them for search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Workers
			}

			rules, err := buildRules(cfg, owner)
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(os.Stderr, "Indexing into %s...\n", cfg.DBPath)

			stats, err := index.IndexAll(cmd.Context(), db, args, rules, index.Options{
				Workers: workers,
				Force:   force,
				Logger:  logger,
				Pipeline: pipeline.Options{
					Extract: parse.Options{Chronological: chronological},
				},
			})
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	owner.register(cmd.Flags())
	cmd.Flags().BoolVar(&force, "force", false, "Re-index archives even if unchanged")
	cmd.Flags().BoolVar(&chronological, "chronological", false, "Blocks list messages oldest first")
	cmd.Flags().IntVar(&workers, "workers", 4, "Archives processed in parallel")

	return cmd
}
