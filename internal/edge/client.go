package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abhisek/readgate/internal/qa"
	"github.com/abhisek/readgate/internal/source"
)

// APIError is a non-2xx answer from the edge API.
type APIError struct {
	Status int
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("edge: %d %s: %s", e.Status, e.Title, e.Detail)
	}
	return fmt.Sprintf("edge: %d %s", e.Status, e.Title)
}

// Client calls the edge API. It implements the source collaborators and
// the gate's question generator and answer scorer.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a Client for baseURL authenticating with token.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchPreview implements source.PreviewFetcher.
func (c *Client) FetchPreview(ctx context.Context, rawURL string) (*source.Preview, error) {
	var p source.Preview
	found, err := c.get(ctx, "/preview?url="+url.QueryEscape(rawURL), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// GetReferencedAction implements source.ReferenceLookup.
func (c *Client) GetReferencedAction(ctx context.Context, id string) (*source.ReferencedAction, error) {
	var ref source.ReferencedAction
	found, err := c.get(ctx, "/actions/"+url.PathEscape(id), &ref)
	if err != nil || !found {
		return nil, err
	}
	return &ref, nil
}

// GetEditorial implements source.EditorialLookup.
func (c *Client) GetEditorial(ctx context.Context, id string) (*source.Editorial, error) {
	var ed source.Editorial
	found, err := c.get(ctx, "/editorials/"+url.PathEscape(id), &ed)
	if err != nil || !found {
		return nil, err
	}
	return &ed, nil
}

// CreateAction publishes an action as the token's actor.
func (c *Client) CreateAction(ctx context.Context, req CreateActionRequest) (ActionResponse, error) {
	var out ActionResponse
	err := c.post(ctx, "/actions", req, &out)
	return out, err
}

// GenerateQuestions asks the edge to generate a quiz. The actor is taken
// from the token, not from req.
func (c *Client) GenerateQuestions(ctx context.Context, req qa.GenerateRequest) (qa.GenerateResult, error) {
	var out qa.GenerateResult
	err := c.post(ctx, "/qa/generate", GenerateQuizRequest{
		SourceRef:     req.SourceRef,
		SummaryText:   req.SummaryText,
		UserText:      req.UserText,
		QuestionCount: req.QuestionCount,
		TestMode:      string(req.TestMode),
	}, &out)
	return out, err
}

// ValidateAnswers sends only the qaId and the answers for scoring.
func (c *Client) ValidateAnswers(ctx context.Context, req qa.ValidateRequest) (qa.ValidateResult, error) {
	var out qa.ValidateResult
	err := c.post(ctx, "/qa/validate", ValidateQuizRequest{QAID: req.QAID, Answers: req.Answers}, &out)
	return out, err
}

// get decodes a 200 response into out. A 404 reports found=false.
func (c *Client) get(ctx context.Context, path string, out any) (found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+BasePath+path, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := decode(resp, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+BasePath+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edge %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		var problem struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(body, &problem) == nil {
			if problem.Title != "" {
				apiErr.Title = problem.Title
			}
			apiErr.Detail = problem.Detail
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode edge response: %w", err)
	}
	return nil
}
