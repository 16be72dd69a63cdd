package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "ath",
		Short:         "Archive Threads - rebuild conversation threads from a messages archive",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&globals.configPath, "config", "", "Config file (default ~/.config/ath/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globals.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(sanitizeCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
