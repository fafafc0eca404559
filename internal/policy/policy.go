// Package policy maps a resolved source and the user's own text to a gate
// requirement. Everything here is pure: no I/O, no clocks, no randomness.
package policy

import (
	"fmt"

	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/textutil"
)

// TestMode selects what the generated questions test.
type TestMode string

const (
	ModeSourceOnly TestMode = "SOURCE_ONLY"
	ModeMixed      TestMode = "MIXED"
	ModeUserOnly   TestMode = "USER_ONLY"
	ModeNone       TestMode = "NONE"
)

// Requirement is the outcome of Compute.
type Requirement struct {
	Required      bool     `json:"required"`
	QuestionCount int      `json:"question_count"`
	TestMode      TestMode `json:"test_mode"`

	// Reason is a short machine-readable explanation, logged on bypass.
	Reason string `json:"reason,omitempty"`
}

// Reasons set on a Requirement that is not required.
const (
	ReasonAuthor     = "author"
	ReasonBelowFloor = "below_floor"
)

var notRequired = Requirement{QuestionCount: 0, TestMode: ModeNone}

// Thresholds holds every word-count boundary the policy uses.
type Thresholds struct {
	// UserOnlyFloor is the minimum word count, per intent, for an
	// unsourced action to be gated at all.
	UserOnlyFloor map[source.Intent]int

	// UserOnlyMid splits 1-question from 3-question user-only quizzes.
	UserOnlyMid int

	// MixedFrom and UserOnlyFrom split sourced actions into SOURCE_ONLY,
	// MIXED and USER_ONLY by the user's word count.
	MixedFrom    int
	UserOnlyFrom int

	// IntentMinWords is the opinion length that satisfies intent mode.
	IntentMinWords int
}

// DefaultThresholds returns the production thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		UserOnlyFloor: map[source.Intent]int{
			source.IntentPost:    30,
			source.IntentShare:   20,
			source.IntentComment: 20,
		},
		UserOnlyMid:    120,
		MixedFrom:      30,
		UserOnlyFrom:   150,
		IntentMinWords: 30,
	}
}

// Validate checks threshold ordering.
func (t Thresholds) Validate() error {
	if t.MixedFrom <= 0 || t.UserOnlyFrom <= t.MixedFrom {
		return fmt.Errorf("policy: need 0 < mixed_from (%d) < user_only_from (%d)", t.MixedFrom, t.UserOnlyFrom)
	}
	for intent, floor := range t.UserOnlyFloor {
		if floor <= 0 {
			return fmt.Errorf("policy: user-only floor for %q must be positive", intent)
		}
		if floor >= t.UserOnlyMid {
			return fmt.Errorf("policy: user-only floor for %q (%d) must be below user_only_mid (%d)", intent, floor, t.UserOnlyMid)
		}
	}
	if t.IntentMinWords <= 0 {
		return fmt.Errorf("policy: intent_min_words must be positive")
	}
	return nil
}

// Policy computes gate requirements.
type Policy struct {
	t Thresholds
}

// New creates a Policy with the given thresholds.
func New(t Thresholds) *Policy {
	return &Policy{t: t}
}

// Input is everything Compute looks at.
type Input struct {
	Kind     source.Kind
	Platform string
	UserText string
	Intent   source.Intent
	IsAuthor bool
}

// InputFor builds an Input from a resolved source and its descriptor.
func InputFor(src source.EffectiveSource, desc source.ActionDescriptor) Input {
	return Input{
		Kind:     src.Kind,
		Platform: src.Platform,
		UserText: desc.UserText,
		Intent:   desc.Intent,
		IsAuthor: desc.IsAuthorOfQuotedContent,
	}
}

// Compute returns the gate requirement for in.
func (p *Policy) Compute(in Input) Requirement {
	return p.ComputeWords(in.Kind, in.Platform, textutil.WordCount(in.UserText), in.Intent, in.IsAuthor)
}

// ComputeWords is Compute with the word count already known.
func (p *Policy) ComputeWords(kind source.Kind, platform string, words int, intent source.Intent, isAuthor bool) Requirement {
	if isAuthor {
		r := notRequired
		r.Reason = ReasonAuthor
		return r
	}

	switch kind {
	case source.KindURL, source.KindEditorial, source.KindMediaOCR:
		return Requirement{
			Required:      true,
			QuestionCount: p.sourcedCount(kind, platform),
			TestMode:      p.sourcedMode(words),
		}
	}

	// none and self-text: only the user's own words can be tested.
	if words < p.floor(intent) {
		r := notRequired
		r.Reason = ReasonBelowFloor
		return r
	}
	count := 1
	if words >= p.t.UserOnlyMid {
		count = 3
	}
	return Requirement{Required: true, QuestionCount: count, TestMode: ModeUserOnly}
}

// IntentSatisfied reports whether userText is long enough to stand in for
// an unavailable source.
func (p *Policy) IntentSatisfied(userText string) bool {
	return textutil.WordCount(userText) >= p.t.IntentMinWords
}

// IntentMinWords returns the intent-mode word floor.
func (p *Policy) IntentMinWords() int { return p.t.IntentMinWords }

func (p *Policy) sourcedMode(words int) TestMode {
	switch {
	case words < p.t.MixedFrom:
		return ModeSourceOnly
	case words < p.t.UserOnlyFrom:
		return ModeMixed
	default:
		return ModeUserOnly
	}
}

func (p *Policy) sourcedCount(kind source.Kind, platform string) int {
	if kind == source.KindURL && source.IsShortFormPlatform(platform) {
		return 1
	}
	return 3
}

func (p *Policy) floor(intent source.Intent) int {
	if f, ok := p.t.UserOnlyFloor[intent]; ok {
		return f
	}
	return p.t.UserOnlyFloor[source.IntentPost]
}
