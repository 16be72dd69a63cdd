package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Zuo-Peng/archive-threads/internal/export"
	"github.com/Zuo-Peng/archive-threads/internal/parse"
	"github.com/Zuo-Peng/archive-threads/internal/pipeline"
	"github.com/Zuo-Peng/archive-threads/internal/sanitize"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var owner ownerFlags
	var dir string
	var csvOut, textOut, jsonOut, stdoutOut bool
	var clean, chronological bool
	var workers int

	cmd := &cobra.Command{
		Use:   "export <archive>...",
		Short: "Rebuild threads from archives and write them as CSV, text, JSON or to stdout",
		Long: `Extract every message from each archive, resolve identities, and write one
output per thread and format. With several archives, each archive's threads go
to their own subdirectory of --dir. Without a format flag, the configured
formats are used.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			var names []string
			for _, name := range []string{"csv", "text", "json", "stdout"} {
				if cmd.Flags().Changed(name) {
					names = append(names, name)
				}
			}
			if len(names) == 0 {
				names = cfg.Formats
			}
			formats, err := parseFormats(names)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("dir") && cfg.OutDir != "" {
				dir = cfg.OutDir
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Workers
			}

			rules, err := buildRules(cfg, owner)
			if err != nil {
				return err
			}

			if clean {
				for _, path := range args {
					backup, removed, err := sanitize.File(path)
					if err != nil {
						return fmt.Errorf("sanitize: %w", err)
					}
					logger.Info("sanitized", "archive", path, "removed", removed, "backup", backup)
				}
			}

			results, err := pipeline.RunAll(cmd.Context(), args, rules, workers, pipeline.Options{
				Extract: parse.Options{Chronological: chronological},
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			exporter := export.Exporter{Owner: rules.Owner()}
			if stdoutIsTerminal() {
				exporter.Color = true
				exporter.Width = terminalWidth()
			}

			dirs := archiveDirs(dir, args)
			for i, res := range results {
				logger.Info("threads rebuilt", "archive", res.Archive, "stats", res.Stats.String())
				for _, f := range formats {
					rendered, err := exporter.Export(res.Threads, f)
					if err != nil {
						return err
					}
					if f == export.Stdout {
						if err := export.WriteStream(os.Stdout, rendered); err != nil {
							return err
						}
						continue
					}
					written, err := export.WriteDir(dirs[i], rendered)
					if err != nil {
						return err
					}
					logger.Info("wrote", "format", f, "dir", dirs[i], "files", len(written))
				}
			}
			return nil
		},
	}

	owner.register(cmd.Flags())
	cmd.Flags().StringVar(&dir, "dir", "ath_out", "Output directory")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Write CSV files")
	cmd.Flags().BoolVar(&textOut, "text", false, "Write plain text files")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write JSON files")
	cmd.Flags().BoolVar(&stdoutOut, "stdout", false, "Print threads to stdout")
	cmd.Flags().BoolVar(&clean, "sanitize", false, "Strip control characters from archives first (keeps a .bak)")
	cmd.Flags().BoolVar(&chronological, "chronological", false, "Blocks list messages oldest first")
	cmd.Flags().IntVar(&workers, "workers", 4, "Archives processed in parallel")

	return cmd
}

// parseFormats maps format names to formats in a fixed order, dropping
// duplicates.
func parseFormats(names []string) ([]export.Format, error) {
	var formats []export.Format
	for _, n := range names {
		f, err := export.ParseFormat(n)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return slices.Compact(formats), nil
}

// archiveDirs returns the output directory of each archive. A single
// archive writes straight into dir; several archives each get a
// subdirectory named after the archive file, made unique.
func archiveDirs(dir string, archives []string) []string {
	out := make([]string, len(archives))
	if len(archives) == 1 {
		out[0] = dir
		return out
	}
	used := make(map[string]int)
	for i, a := range archives {
		base := strings.TrimSuffix(filepath.Base(a), filepath.Ext(a))
		if base == "" {
			base = "archive"
		}
		used[strings.ToLower(base)]++
		if n := used[strings.ToLower(base)]; n > 1 {
			base = fmt.Sprintf("%s-%d", base, n)
		}
		out[i] = filepath.Join(dir, base)
	}
	return out
}
