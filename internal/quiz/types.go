// Package quiz generates comprehension quizzes and scores answers against a
// server-held answer key. Answer keys never leave this package's Service.
package quiz

// Draft is a generated quiz with its answer key, before it is stored.
type Draft struct {
	InsufficientContext bool
	Items               []DraftItem
}

// DraftItem is one generated question with its correct choice.
type DraftItem struct {
	Stem         string
	Choices      []string
	CorrectIndex int
}
