package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Kind tags an EffectiveSource variant.
type Kind string

const (
	KindNone      Kind = "none"
	KindURL       Kind = "url"
	KindEditorial Kind = "editorial"
	KindMediaOCR  Kind = "media-ocr"
	KindSelfText  Kind = "self-text"
)

// Intent identifies which user action is being gated.
type Intent string

const (
	IntentPost    Intent = "post"
	IntentComment Intent = "comment"
	IntentShare   Intent = "share"
)

// OCRStatus is the extraction state of attached media text.
type OCRStatus string

const (
	OCRPending OCRStatus = "pending"
	OCRDone    OCRStatus = "done"
	OCRFailed  OCRStatus = "failed"
)

// MediaText is text extracted from an attached image.
type MediaText struct {
	ID     string
	Text   string
	Status OCRStatus
}

// ActionDescriptor is the unit of work being gated. It is created fresh for
// every user action and owned by exactly one gate invocation.
type ActionDescriptor struct {
	// ActionID is the caller's id for the pending action. Optional; when
	// empty the action's content stands in for it.
	ActionID string

	ActorUserID string
	Intent      Intent

	// UserText is the caption, comment or post body. May be empty.
	UserText string

	// DirectSourceURL is the link the action carries, if any. Editorial
	// content uses the editorial:// address space.
	DirectSourceURL string

	// QuotedReferenceID points at another action this one reshares.
	QuotedReferenceID string

	AttachedMedia *MediaText

	IsAuthorOfQuotedContent bool

	// RequireSource marks actions known to carry a source (e.g. sharing a
	// sourced post). Resolving such an action to no source is a hard error.
	RequireSource bool

	// Continuation resumes the original action. It is invoked at most once.
	Continuation func() error
}

// Key identifies concurrent invocations of the same action. Distinct
// actions by one actor get distinct keys.
func (d ActionDescriptor) Key() string {
	prefix := string(d.Intent) + "|" + d.ActorUserID + "|"
	if d.ActionID != "" {
		return prefix + "id:" + d.ActionID
	}
	h := sha256.New()
	for _, part := range []string{d.DirectSourceURL, d.QuotedReferenceID, d.UserText} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	if d.AttachedMedia != nil {
		h.Write([]byte(d.AttachedMedia.ID))
		h.Write([]byte{0})
		h.Write([]byte(d.AttachedMedia.Text))
	}
	return prefix + hex.EncodeToString(h.Sum(nil))
}

// EffectiveSource is the single piece of content a quiz is generated
// against. Only the fields of the active Kind are populated.
type EffectiveSource struct {
	Kind Kind `json:"kind"`

	// url
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Image    string `json:"image,omitempty"`
	Platform string `json:"platform,omitempty"`
	Content  string `json:"content,omitempty"`

	// editorial
	EditorialID string `json:"editorial_id,omitempty"`
	Body        string `json:"body,omitempty"`

	// media-ocr
	MediaID string `json:"media_id,omitempty"`

	// media-ocr and self-text
	Text string `json:"text,omitempty"`
}

// None is the empty source.
func None() EffectiveSource { return EffectiveSource{Kind: KindNone} }

// Presentable reports whether the reading surface has something to show.
func (s EffectiveSource) Presentable() bool {
	switch s.Kind {
	case KindURL:
		return s.URL != ""
	case KindEditorial:
		return s.Body != ""
	case KindMediaOCR, KindSelfText:
		return s.Text != ""
	}
	return false
}

// ReadableText returns the text a reader or question generator works from.
func (s EffectiveSource) ReadableText() string {
	switch s.Kind {
	case KindURL:
		return s.Content
	case KindEditorial:
		return s.Body
	case KindMediaOCR, KindSelfText:
		return s.Text
	}
	return ""
}

// Preview is the article preview collaborator's response.
type Preview struct {
	Title     string `json:"title,omitempty"`
	Image     string `json:"image,omitempty"`
	Content   string `json:"content,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
	Platform  string `json:"platform,omitempty"`
	SourceRef string `json:"source_ref,omitempty"`
}

// BestText returns the richest text the preview carries.
func (p *Preview) BestText() string {
	if p == nil {
		return ""
	}
	switch {
	case p.Content != "":
		return p.Content
	case p.Summary != "":
		return p.Summary
	}
	return p.Excerpt
}

// ReferencedAction is what a quoted-reference lookup returns.
type ReferencedAction struct {
	ID                string `json:"id"`
	DirectSourceURL   string `json:"direct_source_url,omitempty"`
	QuotedReferenceID string `json:"quoted_reference_id,omitempty"`
	Body              string `json:"body,omitempty"`
}

// Editorial is a piece of in-house editorial copy.
type Editorial struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PreviewFetcher fetches a preview for a URL. A nil preview with a nil error
// means "no preview".
type PreviewFetcher interface {
	FetchPreview(ctx context.Context, url string) (*Preview, error)
}

// ReferenceLookup resolves a quoted reference. A nil action with a nil error
// means the reference is unknown.
type ReferenceLookup interface {
	GetReferencedAction(ctx context.Context, id string) (*ReferencedAction, error)
}

// EditorialLookup fetches editorial copy by id.
type EditorialLookup interface {
	GetEditorial(ctx context.Context, id string) (*Editorial, error)
}
