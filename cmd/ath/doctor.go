package main

import (
	"fmt"
	"os"

	"github.com/Zuo-Peng/archive-threads/internal/config"
	"github.com/Zuo-Peng/archive-threads/internal/index"
	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, rules file, DB, FTS5, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("=== Config ===")
			if globals.configPath != "" {
				checkFile("File", globals.configPath)
			} else if home, err := os.UserHomeDir(); err == nil {
				checkFile("File", config.Path(home))
			}
			cfg, err := loadConfig()
			if err != nil {
				fmt.Printf("  Status: INVALID (%v)\n", err)
				return nil
			}
			fmt.Println("  Status: OK")
			owner := cfg.OwnerName
			if owner == "" {
				owner = "(not set)"
			}
			fmt.Printf("  Owner:   %s\n", owner)
			fmt.Printf("  Formats: %v\n", cfg.Formats)
			fmt.Printf("  Out dir: %s\n", cfg.OutDir)

			// check rules
			fmt.Println("\n=== Rename Rules ===")
			if cfg.ReplaceFile != "" {
				checkFile("File", cfg.ReplaceFile)
			}
			rules, err := buildRules(cfg, ownerFlags{})
			if err != nil {
				fmt.Printf("  Status: INVALID (%v)\n", err)
			} else {
				fmt.Printf("  Rules:  %d\n", rules.Len())
				fmt.Println("  Status: OK")
			}

			// check DB
			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'ath index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			archiveCount, err := db.ArchiveCount()
			if err != nil {
				return fmt.Errorf("count archives: %w", err)
			}
			threadCount, err := db.ThreadCount()
			if err != nil {
				return fmt.Errorf("count threads: %w", err)
			}
			messageCount, err := db.MessageCount()
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}

			fmt.Printf("  Archives: %d\n", archiveCount)
			fmt.Printf("  Threads:  %d\n", threadCount)
			fmt.Printf("  Messages: %d\n", messageCount)

			// check FTS5
			fmt.Println("\n=== FTS5 ===")
			var ftsCount int
			err = db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == messageCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", messageCount, ftsCount)
				}
			}

			// check DB file size
			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkFile(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if info.IsDir() {
		fmt.Printf("  %s: %s (IS A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
