package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/readgate/internal/store"
	"github.com/abhisek/readgate/internal/textutil"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent gate outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		summary, _ := cmd.Flags().GetBool("summary")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if summary {
			counts, err := s.EventRepo().GateOutcomeCounts(ctx)
			if err != nil {
				return fmt.Errorf("count outcomes: %w", err)
			}
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Outcome", "Workflows"})
			total := 0
			for _, c := range counts {
				t.AppendRow(table.Row{c.Outcome, c.Count})
				total += c.Count
			}
			t.AppendFooter(table.Row{"TOTAL", total})
			t.Render()
			return nil
		}

		events, err := s.EventRepo().QueryGateEvents(ctx, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query gate events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No gated actions yet.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Time", "Actor", "Intent", "Source", "Mode", "Outcome", "Score", "Reason", "Ms"})
		for _, e := range events {
			score := ""
			if e.Total > 0 {
				score = fmt.Sprintf("%d/%d", e.Score, e.Total)
			}
			t.AppendRow(table.Row{
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				textutil.Truncate(e.ActorID, 16),
				e.Intent,
				e.SourceKind,
				e.TestMode,
				e.Outcome,
				score,
				e.Reason,
				e.DurationMs,
			})
		}
		t.Render()

		if verbose, _ := cmd.Flags().GetBool("path"); verbose {
			fmt.Println()
			for _, e := range events {
				fmt.Printf("%s  %s\n", e.WorkflowID, e.StatePath)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of workflows to show")
	historyCmd.Flags().Bool("summary", false, "Show outcome counts instead of individual workflows")
	historyCmd.Flags().Bool("path", false, "Also print each workflow's state path")
}
