package quiz

import (
	"context"

	"github.com/abhisek/readgate/internal/qa"
)

// Generator produces quiz drafts from source material.
type Generator interface {
	// Generate drafts questions about material. All configured validators
	// run before returning.
	Generate(ctx context.Context, req qa.GenerateRequest, material string) (*Draft, error)
}
