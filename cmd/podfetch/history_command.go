package main

import (
	"github.com/spf13/cobra"

	"podfetch/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "history [podcast]",
		Short: "Show the episode history database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			podcast := ""
			if len(args) == 1 {
				podcast = args[0]
			}

			records, err := store.List(cmd.Context(), podcast)
			if err != nil {
				return err
			}

			headers := []string{"PODCAST", "FILENAME", "DONE", "PUBLISHED", "COMPLETED"}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				if !allFlag && !r.Downloaded {
					continue
				}
				done := ""
				if r.Downloaded {
					done = "yes"
				}
				published := ""
				if !r.PubTime.IsZero() {
					published = r.PubTime.Format("2006-01-02")
				}
				completed := ""
				if r.CompletedAt != nil {
					completed = r.CompletedAt.Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{r.Podcast, r.Filename, done, published, completed})
			}
			cmd.Println(renderTable(headers, rows))

			totals, err := store.Stats(cmd.Context(), podcast)
			if err != nil {
				return err
			}
			cmd.Printf("%d episodes known, %d downloaded, %d pending\n",
				totals.Episodes, totals.Downloaded, totals.Pending)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&allFlag, "all", "a", false, "Include episodes not yet downloaded")
	return cmd
}
