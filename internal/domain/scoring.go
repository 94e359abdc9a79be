package domain

// ScoreSession grades answers against questions. An answer only counts
// when its question belongs to the set; unanswered questions are neither
// correct nor incorrect.
func ScoreSession(questions []Question, answers AnswerSheet) Outcome {
	outcome := Outcome{TotalQuestions: len(questions)}

	for i := range questions {
		q := &questions[i]
		tally := DifficultyTally{Total: 1}

		answer, answered := answers.Get(q.ID)
		switch {
		case !answered:
			tally.Unanswered = 1
		case answer == q.CorrectAnswer:
			outcome.CorrectCount++
			tally.Correct = 1
		default:
			outcome.IncorrectCount++
			tally.Incorrect = 1
		}

		if q.Difficulty != "" {
			if outcome.ByDifficulty == nil {
				outcome.ByDifficulty = make(map[Difficulty]DifficultyTally)
			}
			acc := outcome.ByDifficulty[q.Difficulty]
			acc.Total += tally.Total
			acc.Correct += tally.Correct
			acc.Incorrect += tally.Incorrect
			acc.Unanswered += tally.Unanswered
			outcome.ByDifficulty[q.Difficulty] = acc
		}
	}

	outcome.UnansweredCount = outcome.TotalQuestions - outcome.CorrectCount - outcome.IncorrectCount
	outcome.Score = Percentage(outcome.CorrectCount, outcome.TotalQuestions)
	return outcome
}

// Percentage returns correct/total as a whole percentage, rounding halves up.
// It is 0 when total is 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// RestoreOutcome rebuilds the derived fields of a stored outcome.
func RestoreOutcome(score, correct, incorrect int, questions []Question, answers AnswerSheet) Outcome {
	derived := ScoreSession(questions, answers)
	return Outcome{
		Score:           score,
		CorrectCount:    correct,
		IncorrectCount:  incorrect,
		UnansweredCount: len(questions) - correct - incorrect,
		TotalQuestions:  len(questions),
		ByDifficulty:    derived.ByDifficulty,
	}
}
