package edge

import (
	"time"

	"github.com/abhisek/readgate/internal/source"
	"github.com/abhisek/readgate/internal/store"
)

// Request payloads

type CreateActionRequest struct {
	ID                string `json:"id,omitempty"`
	Intent            string `json:"intent" enum:"post,comment,share"`
	Body              string `json:"body,omitempty"`
	DirectSourceURL   string `json:"direct_source_url,omitempty"`
	QuotedReferenceID string `json:"quoted_reference_id,omitempty"`
}

type GenerateQuizRequest struct {
	SourceRef     string `json:"source_ref,omitempty"`
	SummaryText   string `json:"summary_text,omitempty"`
	UserText      string `json:"user_text,omitempty"`
	QuestionCount int    `json:"question_count" minimum:"1" maximum:"3"`
	TestMode      string `json:"test_mode" enum:"SOURCE_ONLY,MIXED,USER_ONLY"`
}

type ValidateQuizRequest struct {
	QAID    string `json:"qa_id" minLength:"1"`
	Answers []int  `json:"answers"`
}

// Response payloads

type ActionResponse struct {
	ID                string    `json:"id"`
	ActorID           string    `json:"actor_id"`
	Intent            string    `json:"intent"`
	Body              string    `json:"body,omitempty"`
	DirectSourceURL   string    `json:"direct_source_url,omitempty"`
	QuotedReferenceID string    `json:"quoted_reference_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func actionResponse(a store.Action) ActionResponse {
	return ActionResponse{
		ID:                a.ID,
		ActorID:           a.ActorID,
		Intent:            string(a.Intent),
		Body:              a.Body,
		DirectSourceURL:   a.DirectSourceURL,
		QuotedReferenceID: a.QuotedReferenceID,
		CreatedAt:         a.CreatedAt,
	}
}

func (r CreateActionRequest) action(actor string) store.Action {
	return store.Action{
		ID:                r.ID,
		ActorID:           actor,
		Intent:            source.Intent(r.Intent),
		Body:              r.Body,
		DirectSourceURL:   r.DirectSourceURL,
		QuotedReferenceID: r.QuotedReferenceID,
	}
}
