package main

import (
	"fmt"

	"github.com/Zuo-Peng/archive-threads/internal/render"
	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	var hitOrder int
	var context int
	var query string
	var color string

	cmd := &cobra.Command{
		Use:   "show <threadKey>",
		Short: "Render an indexed thread with context around a hit",
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
			_, th, err := db.GetThread(key)
			if err != nil {
				return err
			}

			useColor := true
			switch color {
			case "never":
				useColor = false
			case "auto":
				// fzf previews are not terminals but render ANSI
				useColor = stdoutIsTerminal() || query != ""
			}

			out, _ := render.RenderThread(th, render.Options{
				HitOrder: hitOrder,
				Context:  context,
				Query:    query,
				Color:    useColor,
				Owner:    cfg.OwnerName,
			})

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&hitOrder, "hit", -1, "Source order of the message to highlight")
	cmd.Flags().IntVar(&context, "context", 10, "Messages before/after hit to show")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().StringVar(&color, "color", "always", "Color output: always, never, auto")

	return cmd
}
