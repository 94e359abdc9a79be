package generation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"quiz-assessment/internal/adapter/upstream"
	"quiz-assessment/internal/domain"

	"gopkg.in/yaml.v3"
)

// QuestionBank is the YAML document served by StaticGenerator.
type QuestionBank struct {
	Name      string         `yaml:"name"`
	Questions []BankQuestion `yaml:"questions"`
}

type BankQuestion struct {
	ID             string   `yaml:"id"`
	Text           string   `yaml:"text"`
	Options        []string `yaml:"options"`
	CorrectAnswer  string   `yaml:"correctAnswer"`
	Difficulty     string   `yaml:"difficulty"`
	Explanation    string   `yaml:"explanation"`
	CodeSnippet    string   `yaml:"codeSnippet"`
	ImageReference string   `yaml:"imageReference"`
}

// StaticGenerator serves questions from a fixed bank. It is used for local
// development and demos where no generation service is running.
type StaticGenerator struct {
	name      string
	questions []domain.Question
}

// LoadQuestionBank reads and validates a YAML question bank.
func LoadQuestionBank(path string) (*QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	var bank QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	return &bank, nil
}

func NewStaticGenerator(bank *QuestionBank) (domain.GenerationService, error) {
	questions := make([]domain.Question, 0, len(bank.Questions))
	for _, bq := range bank.Questions {
		q := domain.Question{
			ID:             bq.ID,
			Text:           bq.Text,
			Options:        bq.Options,
			CorrectAnswer:  bq.CorrectAnswer,
			Explanation:    bq.Explanation,
			CodeSnippet:    bq.CodeSnippet,
			ImageReference: bq.ImageReference,
		}
		if bq.Difficulty != "" {
			d, err := domain.ParseDifficulty(bq.Difficulty)
			if err != nil {
				return nil, fmt.Errorf("question bank %s: %w", bq.ID, err)
			}
			q.Difficulty = d
		}
		questions = append(questions, q)
	}
	if err := domain.ValidateQuestions(questions); err != nil {
		return nil, fmt.Errorf("question bank: %w", err)
	}
	return &StaticGenerator{name: bank.Name, questions: questions}, nil
}

// Generate prefers questions at the requested difficulty, then the nearest
// levels, keeping bank order within a level.
func (g *StaticGenerator) Generate(_ context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if len(g.questions) == 0 {
		return nil, upstream.Malformed(domain.UpstreamGeneration, errors.New("question bank is empty"))
	}

	want := req.Configuration.Difficulty.Rank()
	ranked := make([]domain.Question, len(g.questions))
	copy(ranked, g.questions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return distance(ranked[i].Difficulty.Rank(), want) < distance(ranked[j].Difficulty.Rank(), want)
	})

	n := req.Configuration.QuestionCount
	if n > len(ranked) {
		n = len(ranked)
	}
	picked := make([]domain.Question, n)
	for i := 0; i < n; i++ {
		q := ranked[i]
		q.Options = append([]string(nil), q.Options...)
		picked[i] = q
	}

	return &domain.GenerationResult{
		Questions:   picked,
		SessionName: g.name,
		Metadata:    map[string]any{"generator": "static"},
	}, nil
}

func distance(a, b int) int {
	if a == 0 {
		// Unlabelled questions sort after every labelled level.
		return len(domain.Difficulties) + 1
	}
	if a > b {
		return a - b
	}
	return b - a
}
