package gate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/abhisek/readgate/internal/qa"
	"github.com/abhisek/readgate/internal/source"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateResolving, true},
		{StateResolving, StateReading, true},
		{StateResolving, StateResolved, true},
		{StateReading, StateGenerating, true},
		{StateGenerating, StateReading, true},
		{StateGenerating, StateQuizActive, true},
		{StateQuizActive, StateValidating, true},
		{StateValidating, StateQuizActive, true},
		{StateResolved, StateTerminated, true},
		{StateIdle, StateReading, false},
		{StateReading, StateQuizActive, false},
		{StateTerminated, StateIdle, false},
		{StateResolved, StateReading, false},
	}
	for _, tt := range tests {
		if got := canTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("canTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if StateQuizActive.String() != "quiz_active" {
		t.Fatalf("got %q", StateQuizActive.String())
	}
	if State(42).String() != "unknown" {
		t.Fatalf("got %q", State(42).String())
	}
	if got := statePath([]State{StateIdle, StateResolving, StateResolved}); got != "idle>resolving>resolved" {
		t.Fatalf("statePath = %q", got)
	}
}

func TestVerdictAllows(t *testing.T) {
	for o, want := range map[Outcome]bool{
		OutcomePassed:    true,
		OutcomeBypassed:  true,
		OutcomeFailed:    false,
		OutcomeError:     false,
		OutcomeAbandoned: false,
	} {
		if got := (Verdict{Outcome: o}).Allows(); got != want {
			t.Errorf("%s: Allows() = %v, want %v", o, got, want)
		}
	}
}

func TestResumer_OnceAndDegraded(t *testing.T) {
	r := NewActionResumer(DefaultDegradedPaths())
	var once sync.Once
	calls := 0
	cont := func() error { calls++; return nil }

	res := r.Resume(&once, Verdict{Outcome: OutcomePassed}, source.IntentPost, cont)
	if !res.Invoked || calls != 1 {
		t.Fatalf("first resume: %+v, calls %d", res, calls)
	}
	res = r.Resume(&once, Verdict{Outcome: OutcomePassed}, source.IntentPost, cont)
	if res.Invoked || calls != 1 {
		t.Fatalf("second resume ran the continuation: %+v, calls %d", res, calls)
	}

	var fresh sync.Once
	res = r.Resume(&fresh, Verdict{Outcome: OutcomeFailed}, source.IntentComment, cont)
	if res.Invoked || res.DegradedOption != DegradedComment {
		t.Fatalf("failed comment: %+v", res)
	}
	res = r.Resume(&fresh, Verdict{Outcome: OutcomeFailed}, source.IntentShare, cont)
	if res.DegradedOption != "" {
		t.Fatalf("failed share offered %q", res.DegradedOption)
	}
	if calls != 1 {
		t.Fatalf("continuation ran on a failed verdict")
	}
}

func TestResumer_NilContinuation(t *testing.T) {
	var once sync.Once
	res := NewActionResumer(nil).Resume(&once, Verdict{Outcome: OutcomeBypassed}, source.IntentPost, nil)
	if !res.Invoked || res.Err != nil {
		t.Fatalf("got %+v", res)
	}
}

func TestAnswerValidator(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name string
		res  qa.ValidateResult
		want Outcome
	}{
		{"threshold pass", qa.ValidateResult{Score: 2, Total: 3}, OutcomePassed},
		{"threshold fail", qa.ValidateResult{Score: 2, Total: 5}, OutcomeFailed},
		{"server says pass", qa.ValidateResult{Passed: &yes, Score: 1, Total: 3}, OutcomePassed},
		{"server says fail", qa.ValidateResult{Passed: &no, Score: 3, Total: 3}, OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got qa.ValidateRequest
			v := NewAnswerValidator(scorerFunc(func(_ context.Context, req qa.ValidateRequest) (qa.ValidateResult, error) {
				got = req
				return tt.res, nil
			}))
			verdict, err := v.Validate(context.Background(), "qa-9", []int{1, 0})
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if verdict.Outcome != tt.want {
				t.Fatalf("outcome = %s, want %s", verdict.Outcome, tt.want)
			}
			if got.QAID != "qa-9" || len(got.Answers) != 2 {
				t.Fatalf("scorer got %+v", got)
			}
		})
	}

	v := NewAnswerValidator(scorerFunc(func(context.Context, qa.ValidateRequest) (qa.ValidateResult, error) {
		return qa.ValidateResult{}, errors.New("dial tcp: refused")
	}))
	_, err := v.Validate(context.Background(), "qa-9", []int{0})
	var terr *ValidationTransportError
	if !errors.As(err, &terr) {
		t.Fatalf("want ValidationTransportError, got %v", err)
	}
}
