package gate

import (
	"errors"
	"fmt"

	"github.com/abhisek/readgate/internal/qa"
	"github.com/abhisek/readgate/internal/source"
)

var (
	// ErrRequiredSourceMissing blocks an action that must carry a source.
	ErrRequiredSourceMissing = source.ErrRequiredSourceMissing

	// ErrGenerationTimeout ends a workflow whose questions did not arrive in
	// time.
	ErrGenerationTimeout = errors.New("gate: question generation timed out")

	// ErrBusy rejects re-entry while the workflow is processing.
	ErrBusy = errors.New("gate: workflow busy")

	// ErrInvalidTransition rejects commands that do not apply to the current
	// state.
	ErrInvalidTransition = errors.New("gate: invalid transition")

	// ErrWorkflowClosed is returned by commands sent after termination.
	ErrWorkflowClosed = errors.New("gate: workflow closed")

	// ErrIntentTooShort rejects an intent opinion below the word floor.
	ErrIntentTooShort = errors.New("gate: opinion too short")
)

// GenerationError is a recoverable question generation failure.
type GenerationError struct {
	Kind    qa.ErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("question generation failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("question generation failed (%s): %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ValidationTransportError means the scorer could not be reached. The quiz
// stays active so the user can resubmit.
type ValidationTransportError struct {
	Err error
}

func (e *ValidationTransportError) Error() string {
	return fmt.Sprintf("answer validation failed: %v", e.Err)
}

func (e *ValidationTransportError) Unwrap() error { return e.Err }

// UserError is what a surface shows when something went wrong.
type UserError struct {
	Message   string
	Retryable bool
	Err       error
}

func (e UserError) Error() string { return e.Message }

func (e UserError) Unwrap() error { return e.Err }
