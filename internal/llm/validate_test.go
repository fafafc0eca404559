package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-object",
		Description: "A test object",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"age":   map[string]any{"type": "integer", "minimum": 0},
				"grade": map[string]any{"type": "string", "enum": []any{"A", "B", "C"}},
			},
			"required":             []any{"name", "age"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"name":"Alice","age":10,"grade":"A"}`, false},
		{"valid without optional", `{"name":"Bob","age":8}`, false},
		{"missing required", `{"name":"Charlie"}`, true},
		{"wrong type", `{"name":"Dave","age":"ten"}`, true},
		{"invalid enum", `{"name":"Eve","age":9,"grade":"D"}`, true},
		{"extra property", `{"name":"Fay","age":9,"answer":2}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(testSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}
