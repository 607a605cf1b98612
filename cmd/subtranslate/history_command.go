package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tboy1337/SubtranSlate/internal/history"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent translation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := history.NewStore(cfg.DBPath())
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				cmd.Println("No translation runs recorded yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tSTATUS\tLANGS\tMODE\tCHARS\tTOOK\tINPUT")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s>%s\t%s\t%d\t%s\t%s\n",
					rec.CreatedAt.Local().Format(time.DateTime),
					rec.Status,
					rec.SrcLang, rec.TargetLang,
					rec.Mode,
					rec.Chars,
					rec.Duration.Round(time.Millisecond),
					rec.InputFile,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")

	return cmd
}
