package main

import (
	"fmt"

	"github.com/Zuo-Peng/archive-threads/internal/sanitize"
	"github.com/spf13/cobra"
)

func sanitizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize <archive>...",
		Short: "Strip invisible control characters from archives in place, keeping a .bak copy",
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

			for _, path := range args {
				backup, removed, err := sanitize.File(path)
				if err != nil {
					return fmt.Errorf("sanitize %s: %w", path, err)
				}
				logger.Info("sanitized", "archive", path, "removed", removed, "backup", backup)
			}
			return nil
		},
	}
}
