package main

import (
	"github.com/Zuo-Peng/archive-threads/internal/open"
	"github.com/spf13/cobra"
)

func openCmd() *cobra.Command {
	var hitOrder int

	cmd := &cobra.Command{
		Use:   "open <threadKey>",
		Short: "Open the source archive in $EDITOR at the hit message",
		Args:  cobra.ExactArgs(1),
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

			key, err := db.ResolveThreadKey(args[0])
			if err != nil {
				return err
			}
			return open.OpenThread(db, key, hitOrder)
		},
	}

	cmd.Flags().IntVar(&hitOrder, "hit", -1, "Source order of the message to jump to")

	return cmd
}
