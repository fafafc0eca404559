package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LLMRequestEventData captures a single LLM request.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request.
type LLMEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates LLM calls by purpose or model.
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// GateEventData captures the terminal outcome of one gate workflow.
type GateEventData struct {
	WorkflowID    string
	ActorID       string
	Intent        string
	SourceKind    string
	Required      bool
	QuestionCount int
	TestMode      string
	Outcome       string
	Reason        string
	Score         int
	Total         int
	StatePath     string
	DurationMs    int64
}

// GateEvent is a stored gate outcome.
type GateEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	GateEventData
}

// OutcomeCount is the number of workflows that ended in Outcome.
type OutcomeCount struct {
	Outcome string
	Count   int
}

// EventRepo is the append-only audit log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one LLM event, or nil if id is unknown.
	GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates LLM calls per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates LLM calls per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)

	// AppendGateEvent records a gate workflow outcome.
	AppendGateEvent(ctx context.Context, data GateEventData) error

	// QueryGateEvents returns gate events newest first.
	QueryGateEvents(ctx context.Context, opts QueryOpts) ([]GateEvent, error)

	// GateOutcomeCounts counts workflows per outcome.
	GateOutcomeCounts(ctx context.Context) ([]OutcomeCount, error)
}
