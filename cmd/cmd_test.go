package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/readgate/internal/source"
)

func newActionCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addActionFlags(c, source.IntentShare)
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestDescriptorFromFlags(t *testing.T) {
	c := newActionCmd(t,
		"--actor", "ana",
		"--intent", "comment",
		"--text", "hello there",
		"--quote", "a-1",
		"--media-text", "caption",
		"--author",
	)
	desc, err := descriptorFromFlags(c)
	require.NoError(t, err)

	assert.Equal(t, "ana", desc.ActorUserID)
	assert.Equal(t, source.IntentComment, desc.Intent)
	assert.Equal(t, "hello there", desc.UserText)
	assert.Equal(t, "a-1", desc.QuotedReferenceID)
	assert.True(t, desc.IsAuthorOfQuotedContent)
	assert.False(t, desc.RequireSource)
	require.NotNil(t, desc.AttachedMedia)
	assert.Equal(t, "caption", desc.AttachedMedia.Text)
	assert.Equal(t, source.OCRDone, desc.AttachedMedia.Status)
}

func TestDescriptorFromFlags_Defaults(t *testing.T) {
	t.Setenv("USER", "")
	desc, err := descriptorFromFlags(newActionCmd(t, "--url", "https://example.com/a"))
	require.NoError(t, err)

	assert.Equal(t, "local", desc.ActorUserID)
	assert.Equal(t, source.IntentShare, desc.Intent)
	assert.Equal(t, "https://example.com/a", desc.DirectSourceURL)
	assert.Nil(t, desc.AttachedMedia)
}

func TestDescriptorFromFlags_UnknownIntent(t *testing.T) {
	_, err := descriptorFromFlags(newActionCmd(t, "--intent", "like"))
	assert.ErrorContains(t, err, "unknown intent")
}

func TestDegradedBody(t *testing.T) {
	assert.Equal(t, "[labelled_comment, source not read] nice", degradedBody("labelled_comment", "nice"))
}
