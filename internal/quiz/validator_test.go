package quiz

import (
	"strings"
	"testing"

	"github.com/abhisek/readgate/internal/qa"
)

func item(stem string, correct int, choices ...string) DraftItem {
	return DraftItem{Stem: stem, Choices: choices, CorrectIndex: correct}
}

func TestValidators(t *testing.T) {
	req := qa.GenerateRequest{QuestionCount: 1}

	tests := []struct {
		name    string
		v       Validator
		draft   Draft
		wantErr bool
	}{
		{"structural ok", &StructuralValidator{}, Draft{Items: []DraftItem{item("What did the study find?", 0, "a", "b", "c")}}, false},
		{"empty stem", &StructuralValidator{}, Draft{Items: []DraftItem{item("  ", 0, "a", "b", "c")}}, true},
		{"long stem", &StructuralValidator{}, Draft{Items: []DraftItem{item(strings.Repeat("x", maxStemLen+1), 0, "a", "b", "c")}}, true},
		{"empty choice", &StructuralValidator{}, Draft{Items: []DraftItem{item("Q?", 0, "a", "", "c")}}, true},
		{"two choices", &ChoiceValidator{}, Draft{Items: []DraftItem{item("Q?", 0, "a", "b")}}, true},
		{"five choices", &ChoiceValidator{}, Draft{Items: []DraftItem{item("Q?", 0, "a", "b", "c", "d", "e")}}, true},
		{"index out of range", &ChoiceValidator{}, Draft{Items: []DraftItem{item("Q?", 3, "a", "b", "c")}}, true},
		{"duplicate choice", &ChoiceValidator{}, Draft{Items: []DraftItem{item("Q?", 0, "Yes", "no", "yes ")}}, true},
		{"choices ok", &ChoiceValidator{}, Draft{Items: []DraftItem{item("Q?", 3, "a", "b", "c", "d")}}, false},
		{"count ok", &CountValidator{}, Draft{Items: []DraftItem{item("Q?", 0, "a", "b", "c")}}, false},
		{"count mismatch", &CountValidator{}, Draft{}, true},
		{"duplicate stems", &DuplicateValidator{}, Draft{Items: []DraftItem{
			item("What  happened?", 0, "a", "b", "c"),
			item("what happened?", 1, "a", "b", "c"),
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate(&tt.draft, req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if err.Validator != tt.v.Name() {
					t.Errorf("Validator = %q, want %q", err.Validator, tt.v.Name())
				}
				if !err.Retryable {
					t.Error("expected retryable error")
				}
			}
		})
	}
}
