package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionDescriptorKey(t *testing.T) {
	a := ActionDescriptor{ActorUserID: "u1", Intent: IntentPost, UserText: "first thoughts on the budget"}
	b := ActionDescriptor{ActorUserID: "u1", Intent: IntentPost, UserText: "a different post entirely"}

	assert.Equal(t, a.Key(), a.Key())
	assert.NotEqual(t, a.Key(), b.Key(), "distinct unsourced posts share a key")

	withMedia := a
	withMedia.AttachedMedia = &MediaText{ID: "m1", Text: "caption", Status: OCRDone}
	assert.NotEqual(t, a.Key(), withMedia.Key())

	other := a
	other.ActorUserID = "u2"
	assert.NotEqual(t, a.Key(), other.Key())

	// An explicit id wins over content.
	idA, idB := a, b
	idA.ActionID, idB.ActionID = "act-1", "act-1"
	assert.Equal(t, idA.Key(), idB.Key())
	idB.ActionID = "act-2"
	assert.NotEqual(t, idA.Key(), idB.Key())
}
