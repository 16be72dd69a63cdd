package main

import (
	"github.com/Zuo-Peng/archive-threads/internal/search"
	"github.com/Zuo-Peng/archive-threads/internal/tui"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	var opts search.Options

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse all indexed threads by last activity",
		Long:  `Opens a TUI panel showing all indexed threads, most recently active first. Type to search message text.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return tui.RunList(db, opts, cfg.OwnerName)
		},
	}

	searchFlags(cmd, &opts, 0)

	return cmd
}
