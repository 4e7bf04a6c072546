package model

import "fmt"

// Question is one step of the questionnaire. IDs double as keys of the
// generation request, so they must stay stable.
type Question struct {
	ID     string `json:"id" yaml:"id"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// Catalog is the ordered, immutable list of questions a session walks through.
type Catalog []Question

// DefaultCatalog returns the built-in questions, one per request field.
func DefaultCatalog() Catalog {
	return Catalog{
		{ID: FieldTask, Prompt: "Alright, what's the annoying thing you want help with today?"},
		{ID: FieldAudience, Prompt: "Who's going to use this when it's done?"},
		{ID: FieldTone, Prompt: "Should it sound casual? Professional? Funny? Direct? Tell me the vibe you're going for."},
		{ID: FieldInclude, Prompt: "What details, facts, or ideas absolutely need to be in there?"},
		{ID: FieldAvoid, Prompt: "Anything you don't want it to say or sound like?"},
		{ID: FieldFormat, Prompt: "Are we making a list? An email? A short caption? A table? Something else?"},
		{ID: FieldContext, Prompt: "Where are you using this, like on social media, in a message, printed, or just for your own brain?"},
	}
}

// Len returns the number of questions.
func (c Catalog) Len() int {
	return len(c)
}

// At returns the question at index i.
func (c Catalog) At(i int) (Question, bool) {
	if i < 0 || i >= len(c) {
		return Question{}, false
	}
	return c[i], true
}

// IsLast reports whether i is the terminal step.
func (c Catalog) IsLast(i int) bool {
	return i == len(c)-1
}

// Validate checks that the catalog is usable: non-empty, unique ids, every id
// a known request field and every prompt non-empty.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("catalog has no questions")
	}
	seen := make(map[string]bool, len(c))
	for i, q := range c {
		if q.ID == "" {
			return fmt.Errorf("question %d has no id", i+1)
		}
		if !IsRequestField(q.ID) {
			return fmt.Errorf("question %q is not a request field", q.ID)
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		if q.Prompt == "" {
			return fmt.Errorf("question %q has no prompt", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}
