package quiz

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every draft; the first failure stops the
	// pipeline.
	Validators []Validator

	MaxTokens   int
	Temperature float64

	// MaxAttempts bounds regeneration after a retryable validation failure.
	MaxAttempts int

	// MaxMaterialRunes truncates source material in the prompt.
	MaxMaterialRunes int

	// MinMaterialRunes is the shortest material worth quizzing on.
	MinMaterialRunes int
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&ChoiceValidator{},
			&CountValidator{},
			&DuplicateValidator{},
		},
		MaxTokens:        1024,
		Temperature:      0.4,
		MaxAttempts:      2,
		MaxMaterialRunes: 12000,
		MinMaterialRunes: 50,
	}
}
