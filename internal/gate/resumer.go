package gate

import (
	"fmt"
	"sync"

	"github.com/abhisek/readgate/internal/source"
)

// DegradedComment is the lesser action offered after a failed comment quiz:
// a comment labelled as written without reading.
const DegradedComment = "spontaneous_comment"

// DefaultDegradedPaths offers a labelled comment when a comment quiz fails.
// Posts and shares have no lesser form.
func DefaultDegradedPaths() map[source.Intent]string {
	return map[source.Intent]string{
		source.IntentComment: DegradedComment,
	}
}

// ActionResumer runs the continuation for allowing verdicts.
type ActionResumer struct {
	degraded map[source.Intent]string
}

// NewActionResumer creates an ActionResumer. degraded maps an intent to the
// lesser action offered after a failed quiz; nil offers none.
func NewActionResumer(degraded map[source.Intent]string) *ActionResumer {
	return &ActionResumer{degraded: degraded}
}

// Resumption is what Resume did.
type Resumption struct {
	Invoked        bool
	DegradedOption string
	Err            error
}

// Resume invokes continuation iff v allows the action. once guards against
// a second call for the same workflow. A failed verdict never invokes the
// continuation but may name a degraded option.
func (r *ActionResumer) Resume(once *sync.Once, v Verdict, intent source.Intent, continuation func() error) Resumption {
	var res Resumption
	switch {
	case v.Allows():
		once.Do(func() {
			res.Invoked = true
			if continuation != nil {
				res.Err = safeCall(continuation)
			}
		})
	case v.Outcome == OutcomeFailed:
		res.DegradedOption = r.degraded[intent]
	}
	return res
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("continuation panicked: %v", p)
		}
	}()
	return fn()
}
