package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"quiz-assessment/internal/adapter/upstream"
	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// Completer is the subset of a langchaingo model the analyzer needs.
type Completer interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// LLMAnalyzer writes the post-quiz feedback with a language model.
type LLMAnalyzer struct {
	llm Completer
	now func() time.Time
}

func NewLLMAnalyzer(llm Completer) domain.AnalysisService {
	return &LLMAnalyzer{llm: llm, now: time.Now}
}

const analysisPrompt = `You are a tutor reviewing a learner's multiple-choice quiz. Respond with ONLY a JSON object in the following format:
{
    "performanceReview": "two or three sentences",
    "weakAreas": ["area"],
    "suggestions": ["suggestion"],
    "strengths": ["strength"],
    "improvementAreas": ["area"],
    "detailedAnalysis": "a paragraph",
    "topicsToReview": ["topic"]
}

Score: %d%% (%d correct, %d incorrect, %d unanswered of %d)
Configured difficulty: %s
%s
Questions:
%s`

func describeQuestions(req domain.AnalysisRequest) string {
	var b strings.Builder
	for i, q := range req.Questions {
		answer, answered := req.Answers.Get(q.ID)
		verdict := "unanswered"
		switch {
		case answered && answer == q.CorrectAnswer:
			verdict = "correct"
		case answered:
			verdict = fmt.Sprintf("incorrect (chose %q)", answer)
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n   correct answer: %q, learner: %s\n", i+1, q.Difficulty, q.Text, q.CorrectAnswer, verdict)
	}
	return b.String()
}

func describeDifficulties(o domain.Outcome) string {
	if len(o.ByDifficulty) == 0 {
		return ""
	}
	levels := make([]domain.Difficulty, 0, len(o.ByDifficulty))
	for d := range o.ByDifficulty {
		levels = append(levels, d)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Rank() < levels[j].Rank() })

	var b strings.Builder
	b.WriteString("By difficulty:\n")
	for _, d := range levels {
		t := o.ByDifficulty[d]
		fmt.Fprintf(&b, "- %s: %d/%d correct\n", d, t.Correct, t.Total)
	}
	return b.String()
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error) {
	l := logger.Get()
	o := req.Outcome

	prompt := fmt.Sprintf(analysisPrompt,
		o.Score, o.CorrectCount, o.IncorrectCount, o.UnansweredCount, o.TotalQuestions,
		req.Configuration.Difficulty,
		describeDifficulties(o),
		describeQuestions(req),
	)

	raw, err := a.llm.Call(ctx, prompt, llms.WithTemperature(0.2))
	if err != nil {
		l.Warn("LLM analysis call failed", zap.String("session_id", req.SessionID), zap.Error(err))
		return nil, upstream.Classify(domain.UpstreamAnalysis, err)
	}

	extracted, err := upstream.ExtractJSON(raw, '{')
	if err != nil {
		return nil, upstream.Malformed(domain.UpstreamAnalysis, err)
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(extracted), &payload); err != nil {
		l.Error("Failed to unmarshal analysis from LLM response",
			zap.Error(err),
			zap.String("json_string_tried_to_parse", extracted))
		return nil, upstream.Malformed(domain.UpstreamAnalysis, fmt.Errorf("decode analysis: %w", err))
	}

	analysis, err := payload.toDomain(a.now())
	if err != nil {
		return nil, upstream.Malformed(domain.UpstreamAnalysis, err)
	}
	return analysis, nil
}
