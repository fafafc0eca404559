package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.0-pro",
}

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: resolveModel(cfg.Model, geminiModels)}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = buildGeminiSchema(req.Schema.Definition)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.Code, err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}

	stop := "end"
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		stop = "max_tokens"
	}
	var usage Usage
	if u := result.UsageMetadata; u != nil {
		usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return finish(req, json.RawMessage(result.Text()), usage, p.model, stop)
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

// buildGeminiSchema converts a JSON Schema map into genai's schema type,
// covering the subset our schemas use.
func buildGeminiSchema(def map[string]any) *genai.Schema {
	schema := &genai.Schema{}
	if t, ok := def["type"].(string); ok {
		schema.Type = geminiTypes[t]
		if schema.Type == "" {
			schema.Type = genai.TypeString
		}
	}
	if desc, ok := def["description"].(string); ok {
		schema.Description = desc
	}
	if props, ok := def["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for k, v := range props {
			if propDef, ok := v.(map[string]any); ok {
				schema.Properties[k] = buildGeminiSchema(propDef)
			}
		}
	}
	schema.Required = stringList(def["required"])
	schema.Enum = stringList(def["enum"])
	if items, ok := def["items"].(map[string]any); ok {
		schema.Items = buildGeminiSchema(items)
	}
	if n, ok := def["minItems"].(int); ok {
		schema.MinItems = genai.Ptr(int64(n))
	}
	if n, ok := def["maxItems"].(int); ok {
		schema.MaxItems = genai.Ptr(int64(n))
	}
	return schema
}

var geminiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

func stringList(v any) []string {
	var out []string
	switch vs := v.(type) {
	case []string:
		out = append(out, vs...)
	case []any:
		for _, e := range vs {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
