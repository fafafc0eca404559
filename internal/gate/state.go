// Package gate drives one comprehension gate workflow from resolution to
// the resumed (or abandoned) action.
package gate

import (
	"strings"

	"github.com/abhisek/readgate/internal/policy"
)

// State is a workflow state. Every workflow moves forward through these
// and ends in StateTerminated exactly once.
type State int32

const (
	StateIdle       State = iota // Not started
	StateResolving               // Resolving the effective source
	StateReading                 // Reader surface mounted
	StateGenerating              // Waiting for questions
	StateQuizActive              // Quiz surface mounted
	StateValidating              // Waiting for the scorer
	StateResolved                // Verdict known
	StateTerminated              // Continuation handled
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateResolving:  "resolving",
	StateReading:    "reading",
	StateGenerating: "generating",
	StateQuizActive: "quiz_active",
	StateValidating: "validating",
	StateResolved:   "resolved",
	StateTerminated: "terminated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// transitions lists the legal moves. Resolved is reachable from every
// non-terminal state (bypass, abandonment, error).
var transitions = map[State][]State{
	StateIdle:       {StateResolving},
	StateResolving:  {StateReading, StateResolved},
	StateReading:    {StateGenerating, StateResolved},
	StateGenerating: {StateQuizActive, StateReading, StateResolved},
	StateQuizActive: {StateValidating, StateResolved},
	StateValidating: {StateQuizActive, StateResolved},
	StateResolved:   {StateTerminated},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// statePath renders a path like "idle>resolving>reading".
func statePath(path []State) string {
	names := make([]string, len(path))
	for i, s := range path {
		names[i] = s.String()
	}
	return strings.Join(names, ">")
}

// Outcome is the terminal result of a workflow.
type Outcome string

const (
	OutcomePassed              Outcome = "passed"
	OutcomeFailed              Outcome = "failed"
	OutcomeBypassed            Outcome = "bypassed"
	OutcomeInsufficientContext Outcome = "insufficient_context"
	OutcomeError               Outcome = "error"
	OutcomeAbandoned           Outcome = "abandoned"
)

// Bypass reasons logged with OutcomeBypassed.
const (
	ReasonNotRequired         = "not_required"
	ReasonAuthor              = policy.ReasonAuthor
	ReasonBelowFloor          = policy.ReasonBelowFloor
	ReasonNotPresentable      = "not_presentable"
	ReasonInsufficientContext = "insufficient_context"
	ReasonIntentFallback      = "intent_fallback"
)

// Verdict is the terminal result of a workflow.
type Verdict struct {
	Outcome      Outcome `json:"outcome"`
	Score        int     `json:"score,omitempty"`
	Total        int     `json:"total,omitempty"`
	WrongIndexes []int   `json:"wrong_indexes,omitempty"`

	// Reason explains bypasses and errors.
	Reason string `json:"reason,omitempty"`

	// IntentText is the opinion the user wrote in intent mode.
	IntentText string `json:"intent_text,omitempty"`

	// Resumed is true when the continuation ran.
	Resumed bool `json:"resumed"`

	// DegradedOption names the lesser, ungated action the caller may offer
	// after a failed quiz. Empty when none applies.
	DegradedOption string `json:"degraded_option,omitempty"`
}

// Allows reports whether the verdict lets the original action proceed.
func (v Verdict) Allows() bool {
	return v.Outcome == OutcomePassed || v.Outcome == OutcomeBypassed
}
