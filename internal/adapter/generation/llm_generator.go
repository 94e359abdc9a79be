package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"quiz-assessment/internal/adapter/upstream"
	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// Completer is the subset of a langchaingo model the generator needs.
// *ollama.LLM and *openai.LLM both satisfy it.
type Completer interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// LLMGenerator asks a language model directly for a question set.
type LLMGenerator struct {
	llm Completer
}

func NewLLMGenerator(llm Completer) domain.GenerationService {
	return &LLMGenerator{llm: llm}
}

const generationPrompt = `You are an expert quiz author. Write %d multiple-choice questions at the %s difficulty level.

%s

Respond with ONLY a JSON array. Each element must be an object of the form:
{
    "id": "q1",
    "text": "question text",
    "options": ["option A", "option B", "option C", "option D"],
    "correctAnswer": "the option text that is correct",
    "difficulty": "%s",
    "explanation": "one or two sentences on why the answer is correct"
}

Rules:
1. ids are q1, q2, ... in order
2. correctAnswer must be copied exactly from options
3. every question has between 2 and 5 options
4. do not repeat questions`

func sourceInstructions(src domain.ContentSource) string {
	switch src.Kind {
	case domain.SourceURL:
		return fmt.Sprintf("Base the questions on the material published at: %s", src.URL)
	case domain.SourceTopics:
		titles := make([]string, 0, len(src.Topics))
		for _, t := range src.Topics {
			titles = append(titles, "- "+t.Title)
		}
		return "Cover the following topics:\n" + strings.Join(titles, "\n")
	default:
		return "Base the questions only on this material:\n\"\"\"\n" + src.DocumentText + "\n\"\"\""
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	l := logger.Get()

	prompt := fmt.Sprintf(generationPrompt,
		req.Configuration.QuestionCount,
		req.Configuration.Difficulty,
		sourceInstructions(req.Source),
		req.Configuration.Difficulty,
	)

	raw, err := g.llm.Call(ctx, prompt, llms.WithTemperature(0.4))
	if err != nil {
		l.Warn("LLM generation call failed", zap.Error(err))
		return nil, upstream.Classify(domain.UpstreamGeneration, err)
	}
	l.Debug("Raw LLM generation response received", zap.String("raw_response", raw))

	extracted, err := upstream.ExtractJSON(raw, '[')
	if err != nil {
		return nil, upstream.Malformed(domain.UpstreamGeneration, err)
	}

	var payload []QuestionPayload
	if err := json.Unmarshal([]byte(extracted), &payload); err != nil {
		l.Error("Failed to unmarshal questions from LLM response",
			zap.Error(err),
			zap.String("json_string_tried_to_parse", extracted))
		return nil, upstream.Malformed(domain.UpstreamGeneration, fmt.Errorf("decode questions: %w", err))
	}

	questions, err := ToDomainQuestions(payload)
	if err != nil {
		return nil, upstream.Malformed(domain.UpstreamGeneration, err)
	}

	return &domain.GenerationResult{
		Questions: questions,
		Metadata:  map[string]any{"generator": "llm"},
	}, nil
}
