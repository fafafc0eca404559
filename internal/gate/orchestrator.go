package gate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/store"
)

// EventSink records finished workflows. store.EventRepo satisfies it.
type EventSink interface {
	AppendGateEvent(ctx context.Context, d store.GateEventData) error
}

// Orchestrator is the entry point for gated actions. It creates one
// Controller per action and refuses a second gate for an action already in
// flight.
type Orchestrator struct {
	deps Deps
	sink EventSink

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewOrchestrator creates an Orchestrator. sink may be nil.
func NewOrchestrator(deps Deps, sink EventSink) *Orchestrator {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Orchestrator{
		deps:     deps,
		sink:     sink,
		inFlight: make(map[string]struct{}),
	}
}

// Gate runs the comprehension gate for desc and blocks until it terminates.
// surfaces receive the workflow's controller first if they implement
// Attacher.
func (o *Orchestrator) Gate(ctx context.Context, desc source.ActionDescriptor, surfaces Surfaces) (Verdict, error) {
	key := desc.Key()
	if !o.acquire(key) {
		return Verdict{}, ErrBusy
	}
	defer o.release(key)

	c := NewController(o.deps, surfaces)
	if a, ok := surfaces.(Attacher); ok {
		a.Attach(c)
	}

	v, err := c.Run(ctx, desc)
	tr := c.Trace()

	o.deps.Metrics.recordOutcome(context.WithoutCancel(ctx), string(desc.Intent), v)
	o.record(context.WithoutCancel(ctx), desc, v, tr)
	return v, err
}

func (o *Orchestrator) acquire(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[key]; busy {
		return false
	}
	o.inFlight[key] = struct{}{}
	return true
}

func (o *Orchestrator) release(key string) {
	o.mu.Lock()
	delete(o.inFlight, key)
	o.mu.Unlock()
}

func (o *Orchestrator) record(ctx context.Context, desc source.ActionDescriptor, v Verdict, tr Trace) {
	if o.sink == nil {
		return
	}
	err := o.sink.AppendGateEvent(ctx, store.GateEventData{
		WorkflowID:    tr.WorkflowID,
		ActorID:       desc.ActorUserID,
		Intent:        string(desc.Intent),
		SourceKind:    string(tr.Source.Kind),
		Required:      tr.Requirement.Required,
		QuestionCount: tr.Requirement.QuestionCount,
		TestMode:      string(tr.Requirement.TestMode),
		Outcome:       string(v.Outcome),
		Reason:        v.Reason,
		Score:         v.Score,
		Total:         v.Total,
		StatePath:     statePath(tr.Path),
		DurationMs:    tr.Finished.Sub(tr.Started).Milliseconds(),
	})
	if err != nil {
		o.deps.Log.Warn("failed to record gate event", zap.String("workflow_id", tr.WorkflowID), zap.Error(err))
	}
}
