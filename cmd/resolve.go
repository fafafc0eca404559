package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/readgate/internal/edge"
	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/textutil"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show the effective source and quiz requirement for an action without gating it",
	RunE:  runResolve,
}

func init() {
	addActionFlags(resolveCmd, source.IntentShare)
}

func runResolve(cmd *cobra.Command, args []string) error {
	desc, err := descriptorFromFlags(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var resolver *source.Resolver
	if cfg.Client.EdgeURL != "" {
		c := edge.NewClient(cfg.Client.EdgeURL, cfg.Client.Token, cfg.Client.Timeout)
		resolver = source.NewResolver(c, c, c, cfg.Gate.Resolver(), logger.Named("resolver"))
	} else {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		previews, closePreviews, err := newPreviewFetcher(ctx)
		if err != nil {
			return err
		}
		defer closePreviews()
		resolver = source.NewResolver(previews, st.Actions(), st.Editorials(), cfg.Gate.Resolver(), logger.Named("resolver"))
	}

	src, err := resolver.Resolve(ctx, desc)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	req := newPolicy().Compute(policy.InputFor(src, desc))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Source kind", src.Kind})
	switch src.Kind {
	case source.KindURL:
		t.AppendRow(table.Row{"URL", src.URL})
		t.AppendRow(table.Row{"Title", src.Title})
		t.AppendRow(table.Row{"Platform", src.Platform})
	case source.KindEditorial:
		t.AppendRow(table.Row{"Editorial", src.EditorialID})
		t.AppendRow(table.Row{"Title", src.Title})
	case source.KindMediaOCR:
		t.AppendRow(table.Row{"Media", src.MediaID})
	}
	t.AppendRow(table.Row{"Presentable", src.Presentable()})
	t.AppendRow(table.Row{"User words", textutil.WordCount(desc.UserText)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Quiz required", req.Required})
	t.AppendRow(table.Row{"Questions", req.QuestionCount})
	t.AppendRow(table.Row{"Test mode", req.TestMode})
	if req.Reason != "" {
		t.AppendRow(table.Row{"Reason", req.Reason})
	}
	t.Render()
	return nil
}
