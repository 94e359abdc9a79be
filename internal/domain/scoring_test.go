package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeQuestions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Text:          "question",
			Options:       []string{"right", "wrong"},
			CorrectAnswer: "right",
		}
	}
	return qs
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{7, 10, 70},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{0, 5, 0},
		{5, 5, 100},
		{0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.correct, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.correct, tt.total))
		})
	}
}

func TestScoreSession_Counts(t *testing.T) {
	qs := makeQuestions(10)
	var answers AnswerSheet
	for i := 0; i < 7; i++ {
		answers.Set(qs[i].ID, "right")
	}
	answers.Set(qs[7].ID, "wrong")

	o := ScoreSession(qs, answers)
	assert.Equal(t, 70, o.Score)
	assert.Equal(t, 7, o.CorrectCount)
	assert.Equal(t, 1, o.IncorrectCount)
	assert.Equal(t, 2, o.UnansweredCount)
	assert.Equal(t, 10, o.TotalQuestions)
}

func TestScoreSession_Invariants(t *testing.T) {
	for total := 0; total <= 12; total++ {
		qs := makeQuestions(total)
		for correct := 0; correct <= total; correct++ {
			for incorrect := 0; correct+incorrect <= total; incorrect++ {
				var answers AnswerSheet
				for i := 0; i < correct; i++ {
					answers.Set(qs[i].ID, "right")
				}
				for i := correct; i < correct+incorrect; i++ {
					answers.Set(qs[i].ID, "wrong")
				}

				o := ScoreSession(qs, answers)
				assert.Equal(t, total, o.CorrectCount+o.IncorrectCount+o.UnansweredCount)
				assert.GreaterOrEqual(t, o.Score, 0)
				assert.LessOrEqual(t, o.Score, 100)
				assert.Equal(t, o, ScoreSession(qs, answers), "scoring is idempotent")
			}
		}
	}
}

func TestScoreSession_IgnoresForeignAnswers(t *testing.T) {
	qs := makeQuestions(2)
	var answers AnswerSheet
	answers.Set("q1", "right")
	answers.Set("other", "right")

	o := ScoreSession(qs, answers)
	assert.Equal(t, 1, o.CorrectCount)
	assert.Equal(t, 1, o.UnansweredCount)
}

func TestScoreSession_EmptyQuestionSet(t *testing.T) {
	o := ScoreSession(nil, AnswerSheet{})
	assert.Equal(t, Outcome{}, o)
}

func TestScoreSession_ByDifficulty(t *testing.T) {
	qs := []Question{
		{ID: "a", Options: []string{"x", "y"}, CorrectAnswer: "x", Difficulty: DifficultyEasy},
		{ID: "b", Options: []string{"x", "y"}, CorrectAnswer: "x", Difficulty: DifficultyEasy},
		{ID: "c", Options: []string{"x", "y"}, CorrectAnswer: "y", Difficulty: DifficultyHard},
	}
	answers := NewAnswerSheet(map[string]string{"a": "x", "c": "x"})

	o := ScoreSession(qs, answers)
	assert.Equal(t, DifficultyTally{Total: 2, Correct: 1, Unanswered: 1}, o.ByDifficulty[DifficultyEasy])
	assert.Equal(t, DifficultyTally{Total: 1, Incorrect: 1}, o.ByDifficulty[DifficultyHard])
}

func TestRestoreOutcome(t *testing.T) {
	qs := makeQuestions(4)
	o := RestoreOutcome(50, 2, 1, qs, AnswerSheet{})
	assert.Equal(t, 50, o.Score)
	assert.Equal(t, 1, o.UnansweredCount)
	assert.Equal(t, 4, o.TotalQuestions)
}
