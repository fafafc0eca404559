package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/store"
	"github.com/abhisek/readgate/internal/textutil"
)

// postCmd manages the local content that quotes and editorial links
// resolve against.
var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Manage stored actions and editorials",
}

var postAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store an action without gating it",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := descriptorFromFlags(cmd)
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		a := store.Action{
			ID:                uuid.NewString(),
			ActorID:           desc.ActorUserID,
			Intent:            desc.Intent,
			Body:              desc.UserText,
			DirectSourceURL:   desc.DirectSourceURL,
			QuotedReferenceID: desc.QuotedReferenceID,
			CreatedAt:         time.Now(),
		}
		if err := s.Actions().Create(cmd.Context(), a); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.ID)
		return nil
	},
}

var postListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored actions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		actions, err := s.Actions().List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(actions) == 0 {
			fmt.Println("No actions stored.")
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Created", "Actor", "Intent", "Source", "Quotes", "Body"})
		for _, a := range actions {
			t.AppendRow(table.Row{
				a.ID,
				a.CreatedAt.Local().Format("2006-01-02 15:04"),
				a.ActorID,
				a.Intent,
				textutil.Truncate(a.DirectSourceURL, 40),
				a.QuotedReferenceID,
				textutil.Truncate(a.Body, 40),
			})
		}
		t.Render()
		return nil
	},
}

var editorialCmd = &cobra.Command{
	Use:   "editorial <id>",
	Short: "Store editorial copy read from --file or stdin",
	Long: "Store editorial copy so that links to " + source.EditorialURL("<id>") +
		" resolve to it.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		file, _ := cmd.Flags().GetString("file")

		var r io.Reader = cmd.InOrStdin()
		if file != "" {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		body, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read editorial body: %w", err)
		}
		if strings.TrimSpace(string(body)) == "" {
			return errors.New("editorial body is empty")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		e := source.Editorial{ID: args[0], Title: title, Body: string(body)}
		if err := s.Editorials().Upsert(cmd.Context(), e); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored editorial %s (%d words), link: %s\n",
			e.ID, textutil.WordCount(e.Body), source.EditorialURL(e.ID))
		return nil
	},
}

func init() {
	addActionFlags(postAddCmd, source.IntentPost)

	postListCmd.Flags().IntP("limit", "n", 20, "Number of actions to show")

	editorialCmd.Flags().String("title", "", "Editorial title")
	editorialCmd.Flags().String("file", "", "Read the body from this file instead of stdin")

	postCmd.AddCommand(postAddCmd)
	postCmd.AddCommand(postListCmd)
	postCmd.AddCommand(editorialCmd)
}
