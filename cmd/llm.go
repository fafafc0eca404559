package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/readgate/internal/store"
	"github.com/abhisek/readgate/internal/textutil"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM request/response events",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM events found.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK"})
		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			t.AppendRow(table.Row{
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				textutil.Truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			})
		}
		t.Render()
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		sep := strings.Repeat("─", 60)

		fmt.Printf("ID:        %d\n", e.ID)
		fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Provider:  %s\n", e.Provider)
		fmt.Printf("Model:     %s\n", e.Model)
		fmt.Printf("Purpose:   %s\n", e.Purpose)
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		fmt.Printf("Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}

		for _, part := range []struct{ title, body string }{
			{"REQUEST", e.RequestBody},
			{"RESPONSE", e.ResponseBody},
		} {
			fmt.Println()
			fmt.Println(sep)
			fmt.Println(part.title)
			fmt.Println(sep)
			if part.body == "" {
				fmt.Println("(not captured)")
				continue
			}
			fmt.Println(part.body)
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}
		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		renderUsage("Purpose", byPurpose)
		fmt.Println()
		renderUsage("Model", byModel)
		return nil
	},
}

func renderUsage(keyTitle string, rows []store.LLMUsage) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{keyTitle, "Calls", "Input", "Output", "Total", "Avg Ms"})

	var calls, in, out int
	for _, u := range rows {
		t.AppendRow(table.Row{textutil.Truncate(u.Key, 32), u.Calls, u.InputTokens, u.OutputTokens, u.InputTokens + u.OutputTokens, u.AvgLatencyMs})
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
	}
	t.AppendFooter(table.Row{"TOTAL", calls, in, out, in + out, ""})
	t.Render()
}


func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (quiz-gen, quiz-regen)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
