package generation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quiz-assessment/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bankYAML = `name: Go basics
questions:
  - id: e1
    text: Keyword to declare a function?
    options: [func, def]
    correctAnswer: func
    difficulty: easy
  - id: h1
    text: What does a nil channel do on receive?
    options: [blocks forever, panics]
    correctAnswer: blocks forever
    difficulty: hard
  - id: n1
    text: len of a nil slice?
    options: ["0", panics]
    correctAnswer: "0"
    difficulty: Normal
  - id: x1
    text: Unlabelled question
    options: [a, b]
    correctAnswer: a
`

func writeBank(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestStaticGenerator_PrefersRequestedDifficulty(t *testing.T) {
	bank, err := LoadQuestionBank(writeBank(t, bankYAML))
	require.NoError(t, err)
	gen, err := NewStaticGenerator(bank)
	require.NoError(t, err)

	req := testRequest()
	req.Configuration.Difficulty = domain.DifficultyHard
	req.Configuration.QuestionCount = 2

	result, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Go basics", result.SessionName)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, "h1", result.Questions[0].ID)
	assert.Equal(t, "n1", result.Questions[1].ID)
}

func TestStaticGenerator_ReturnsWholeBankWhenShort(t *testing.T) {
	bank, err := LoadQuestionBank(writeBank(t, bankYAML))
	require.NoError(t, err)
	gen, err := NewStaticGenerator(bank)
	require.NoError(t, err)

	req := testRequest()
	req.Configuration.QuestionCount = 10
	result, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, result.Questions, 4)
	assert.Equal(t, "x1", result.Questions[3].ID)
}

func TestStaticGenerator_InvalidBank(t *testing.T) {
	_, err := LoadQuestionBank(writeBank(t, "questions: [unclosed"))
	assert.Error(t, err)

	bank := &QuestionBank{Questions: []BankQuestion{{ID: "q", Text: "t", Options: []string{"a", "b"}, CorrectAnswer: "c"}}}
	_, err = NewStaticGenerator(bank)
	assert.Error(t, err)

	empty, err := NewStaticGenerator(&QuestionBank{})
	require.NoError(t, err)
	_, err = empty.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.UpstreamMalformed, upstreamErr(t, err).Kind)
}
