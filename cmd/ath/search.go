package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Zuo-Peng/archive-threads/internal/search"
	"github.com/Zuo-Peng/archive-threads/internal/tui"
	"github.com/spf13/cobra"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

// tsvField flattens s so it stays in one TSV column.
func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// searchFlags are the filters shared by search and list.
func searchFlags(cmd *cobra.Command, opts *search.Options, limit int) {
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "Only messages from this sender")
	cmd.Flags().StringVar(&opts.Archive, "archive", "", "Only threads from this archive path")
	cmd.Flags().StringVar(&opts.Since, "since", "", "Only messages since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.Limit, "limit", limit, "Max results (0 = no limit)")
}

func searchCmd() *cobra.Command {
	var opts search.Options

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across indexed threads",
		Long: `Search indexed messages using FTS5. Output is TSV for fzf integration:
  threadKey, hitOrder, timestamp, thread, sender, snippet

Recommended shell function (add to .zshrc):
  athf() {
    ath search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'ath show {1} --hit {2} --context 5 --query {q}' \
      --preview-window=right:60%:wrap \
      --preview-debounce=150 \
      --bind 'enter:execute(ath open {1} --hit {2})'
  }`,
		Args: cobra.ExactArgs(1),
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

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if stdoutIsTerminal() {
				return tui.Run(db, args[0], opts, cfg.OwnerName)
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				// first two fields (threadKey, hitOrder) stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%s%s\t%s%s%s\t%s\t%s\n",
					r.ThreadKey,
					r.SourceOrder,
					sColorDim, r.Ts, sColorReset,
					sColorGreen, tsvField(r.Label), sColorReset,
					tsvField(r.Sender),
					colorizeSnippet(tsvField(r.Snippet)),
				)
			}
			return nil
		},
	}

	searchFlags(cmd, &opts, 100)

	return cmd
}
