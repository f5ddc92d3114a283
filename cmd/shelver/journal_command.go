package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"shelver/internal/journal"
)

func newJournalCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent transfer outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return fmt.Errorf("journal is disabled in configuration")
			}
			store, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.RecentOutcomes(context.Background(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No recorded outcomes yet.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				when := ""
				if !rec.CreatedAt.IsZero() {
					when = rec.CreatedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					when,
					string(rec.Kind),
					rec.SourcePath,
					rec.DestPath,
					fmt.Sprintf("%d", rec.Attempts),
					humanize.IBytes(uint64(rec.Bytes)),
					rec.Reason,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Outcome", "Source", "Destination", "Attempts", "Bytes", "Reason"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of outcomes to display")
	return cmd
}
