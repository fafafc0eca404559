package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/store"
	"github.com/abhisek/readgate/internal/tui"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Gate a post, share or comment behind a comprehension quiz",
	Example: `  readgate gate --intent share --url https://example.com/article
  readgate gate --intent comment --quote 3f1c... --text "I disagree because..."`,
	RunE: runGate,
}

func init() {
	addActionFlags(gateCmd, source.IntentShare)
}

// addActionFlags registers the flags descriptorFromFlags reads.
func addActionFlags(cmd *cobra.Command, intent source.Intent) {
	f := cmd.Flags()
	f.String("actor", "", "Acting user id (defaults to $USER)")
	f.String("intent", string(intent), "Action intent: post, share or comment")
	f.String("text", "", "The user's own text for the action")
	f.String("url", "", "Source URL attached to the action")
	f.String("quote", "", "Id of the action being quoted or replied to")
	f.String("media-text", "", "Text recognized from attached media")
	f.Bool("author", false, "The actor wrote the quoted content")
	f.Bool("require-source", false, "Fail when no source can be resolved")
}

func descriptorFromFlags(cmd *cobra.Command) (source.ActionDescriptor, error) {
	f := cmd.Flags()
	actor, _ := f.GetString("actor")
	if actor == "" {
		actor = os.Getenv("USER")
	}
	if actor == "" {
		actor = "local"
	}
	intent, _ := f.GetString("intent")
	switch source.Intent(intent) {
	case source.IntentPost, source.IntentShare, source.IntentComment:
	default:
		return source.ActionDescriptor{}, fmt.Errorf("unknown intent %q (want post, share or comment)", intent)
	}
	text, _ := f.GetString("text")
	link, _ := f.GetString("url")
	quote, _ := f.GetString("quote")
	mediaText, _ := f.GetString("media-text")
	author, _ := f.GetBool("author")
	required, _ := f.GetBool("require-source")

	desc := source.ActionDescriptor{
		ActorUserID:             actor,
		Intent:                  source.Intent(intent),
		UserText:                text,
		DirectSourceURL:         link,
		QuotedReferenceID:       quote,
		IsAuthorOfQuotedContent: author,
		RequireSource:           required,
	}
	if mediaText != "" {
		desc.AttachedMedia = &source.MediaText{ID: "cli", Text: mediaText, Status: source.OCRDone}
	}
	return desc, nil
}

func runGate(cmd *cobra.Command, args []string) error {
	desc, err := descriptorFromFlags(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	co, err := newCollaborators(ctx, st, desc.ActorUserID)
	if err != nil {
		return err
	}
	defer co.close()

	metrics, err := gate.NewMetrics(nil)
	if err != nil {
		return err
	}
	orch := gate.NewOrchestrator(gate.Deps{
		Resolver:  co.resolver(),
		Policy:    newPolicy(),
		Generator: co.generator,
		Validator: gate.NewAnswerValidator(co.scorer),
		Resumer:   gate.NewActionResumer(gate.DefaultDegradedPaths()),
		Config: gate.Config{
			GenerationTimeout: cfg.Gate.GenerationTimeout,
			ValidationTimeout: cfg.Gate.ValidationTimeout,
		},
		Metrics: metrics,
		Log:     logger.Named("gate"),
	}, st.EventRepo())

	action := store.Action{
		ID:                uuid.NewString(),
		ActorID:           desc.ActorUserID,
		Intent:            desc.Intent,
		Body:              desc.UserText,
		DirectSourceURL:   desc.DirectSourceURL,
		QuotedReferenceID: desc.QuotedReferenceID,
	}
	desc.ActionID = action.ID
	desc.Continuation = func() error {
		action.CreatedAt = time.Now()
		return co.publish(context.WithoutCancel(ctx), action)
	}

	res, err := tui.Run(ctx, orch, desc)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	v := res.Verdict
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Outcome: %s", v.Outcome)
	if v.Total > 0 {
		fmt.Fprintf(out, " (%d/%d)", v.Score, v.Total)
	}
	if v.Reason != "" {
		fmt.Fprintf(out, ", reason: %s", v.Reason)
	}
	fmt.Fprintln(out)

	if v.Resumed {
		fmt.Fprintf(out, "Published %s %s\n", desc.Intent, action.ID)
	}
	if res.TookDegraded && v.DegradedOption != "" {
		degraded := store.Action{
			ID:                uuid.NewString(),
			ActorID:           desc.ActorUserID,
			Intent:            source.IntentComment,
			Body:              degradedBody(v.DegradedOption, desc.UserText),
			QuotedReferenceID: desc.QuotedReferenceID,
			CreatedAt:         time.Now(),
		}
		if err := co.publish(ctx, degraded); err != nil {
			return fmt.Errorf("publish degraded action: %w", err)
		}
		logger.Info("degraded action published", zap.String("action_id", degraded.ID), zap.String("option", v.DegradedOption))
		fmt.Fprintf(out, "Published labelled comment %s\n", degraded.ID)
	}
	return nil
}

// degradedBody labels text posted through a degraded path so readers can
// tell it was not gated.
func degradedBody(option, text string) string {
	return fmt.Sprintf("[%s, source not read] %s", option, text)
}
