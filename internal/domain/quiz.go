package domain

import (
	"fmt"
	"strings"
)

// Difficulty is the closed set of quiz difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyNormal Difficulty = "Normal"
	DifficultyHard   Difficulty = "Hard"
	DifficultyMaster Difficulty = "Master"
)

// Difficulties lists every level from easiest to hardest.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyMaster}

// ParseDifficulty accepts the canonical names as well as the lowercase
// vocabulary used by the generation service (easy, medium, hard).
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, nil
	case "normal", "medium":
		return DifficultyNormal, nil
	case "hard":
		return DifficultyHard, nil
	case "master":
		return DifficultyMaster, nil
	}
	return "", NewValidationError(fmt.Sprintf("invalid difficulty: %q", s))
}

// IsValid reports whether d is one of the canonical levels.
func (d Difficulty) IsValid() bool {
	return d.Rank() > 0
}

// Rank returns 1..4 for valid levels and 0 otherwise.
func (d Difficulty) Rank() int {
	for i, level := range Difficulties {
		if d == level {
			return i + 1
		}
	}
	return 0
}

// Limits for a session configuration.
const (
	MinQuestionCount    = 1
	MaxQuestionCount    = 50
	MinTimeLimitSeconds = 60
	MaxTimeLimitSeconds = 7200
	MinQuestionOptions  = 2
)

// Configuration is fixed once attached to a session.
type Configuration struct {
	Difficulty       Difficulty `json:"difficulty"`
	QuestionCount    int        `json:"questionCount"`
	TimeLimitSeconds int        `json:"timeLimitSeconds"`
}

func (c Configuration) Validate() error {
	if !c.Difficulty.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid difficulty: %q", c.Difficulty)).
			WithContext("field", "difficulty")
	}
	if c.QuestionCount < MinQuestionCount || c.QuestionCount > MaxQuestionCount {
		return NewValidationError(fmt.Sprintf("question count must be between %d and %d", MinQuestionCount, MaxQuestionCount)).
			WithContext("field", "questionCount")
	}
	if c.TimeLimitSeconds < MinTimeLimitSeconds || c.TimeLimitSeconds > MaxTimeLimitSeconds {
		return NewValidationError(fmt.Sprintf("time limit must be between %d and %d seconds", MinTimeLimitSeconds, MaxTimeLimitSeconds)).
			WithContext("field", "timeLimitSeconds")
	}
	return nil
}

// Question is a single multiple-choice item.
type Question struct {
	ID             string     `json:"id"`
	Text           string     `json:"text"`
	Options        []string   `json:"options"`
	CorrectAnswer  string     `json:"correctAnswer"`
	Difficulty     Difficulty `json:"difficulty,omitempty"`
	Explanation    string     `json:"explanation,omitempty"`
	CodeSnippet    string     `json:"codeSnippet,omitempty"`
	ImageReference string     `json:"imageReference,omitempty"`
}

// HasOption reports whether answer is one of the question's options.
func (q *Question) HasOption(answer string) bool {
	for _, opt := range q.Options {
		if opt == answer {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants. Text is optional for
// supplied questions.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return NewValidationError("question id is required")
	}
	if len(q.Options) < MinQuestionOptions {
		return NewValidationError(fmt.Sprintf("question %s: at least %d options are required", q.ID, MinQuestionOptions))
	}
	if !q.HasOption(q.CorrectAnswer) {
		return NewValidationError(fmt.Sprintf("question %s: correct answer is not one of the options", q.ID))
	}
	if q.Difficulty != "" && !q.Difficulty.IsValid() {
		return NewValidationError(fmt.Sprintf("question %s: invalid difficulty %q", q.ID, q.Difficulty))
	}
	return nil
}

// ValidateQuestions checks every question and that ids are unique.
func ValidateQuestions(questions []Question) error {
	seen := make(map[string]struct{}, len(questions))
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[questions[i].ID]; dup {
			return NewValidationError(fmt.Sprintf("duplicate question id: %s", questions[i].ID))
		}
		seen[questions[i].ID] = struct{}{}
	}
	return nil
}

// SourceKind identifies what the generation service builds questions from.
type SourceKind string

const (
	SourceURL      SourceKind = "url"
	SourceDocument SourceKind = "document"
	SourceTopics   SourceKind = "topics"
)

// TopicRef points at a topic selected from previously ingested content.
type TopicRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Locator string `json:"locator,omitempty"`
}

// ContentSource describes the material a quiz is generated from.
// Exactly one of URL, DocumentText or Topics is set, matching Kind.
type ContentSource struct {
	Kind         SourceKind `json:"kind"`
	URL          string     `json:"url,omitempty"`
	DocumentText string     `json:"documentText,omitempty"`
	Topics       []TopicRef `json:"topics,omitempty"`
}

func (s *ContentSource) Validate() error {
	populated := 0
	if s.URL != "" {
		populated++
	}
	if s.DocumentText != "" {
		populated++
	}
	if len(s.Topics) > 0 {
		populated++
	}
	if populated != 1 {
		return NewValidationError("exactly one content source must be provided")
	}

	switch s.Kind {
	case SourceURL:
		if s.URL == "" {
			return NewValidationError("url source requires a url")
		}
	case SourceDocument:
		if strings.TrimSpace(s.DocumentText) == "" {
			return NewValidationError("document source requires document text")
		}
	case SourceTopics:
		for _, topic := range s.Topics {
			if topic.Title == "" {
				return NewValidationError("selected topics require a title")
			}
		}
		if len(s.Topics) == 0 {
			return NewValidationError("topics source requires at least one topic")
		}
	default:
		return NewValidationError(fmt.Sprintf("unknown content source kind: %q", s.Kind))
	}
	return nil
}
