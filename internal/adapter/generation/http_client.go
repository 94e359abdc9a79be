package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"quiz-assessment/internal/adapter/upstream"
	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/logger"

	"go.uber.org/zap"
)

const generatePath = "/quiz/generate"

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// HTTPClient calls the remote content-generation service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a generation client. The deadline comes from the
// caller's context, so httpClient should not set its own Timeout.
func NewHTTPClient(baseURL string, httpClient *http.Client) domain.GenerationService {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type configurationPayload struct {
	Difficulty        string `json:"difficulty"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
	TimeDuration      int    `json:"timeDuration"`
}

type topicPayload struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Locator string `json:"locator,omitempty"`
}

type sourcePayload struct {
	Kind           string         `json:"kind"`
	URL            string         `json:"url,omitempty"`
	Document       string         `json:"document,omitempty"`
	SelectedTopics []topicPayload `json:"selectedTopics,omitempty"`
}

type generateRequest struct {
	Configuration configurationPayload `json:"configuration"`
	Source        sourcePayload        `json:"source"`
}

// QuestionPayload is the wire form of a generated question.
type QuestionPayload struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswer  string   `json:"correctAnswer"`
	Difficulty     string   `json:"difficulty"`
	Explanation    string   `json:"explanation"`
	CodeSnippet    string   `json:"codeSnippet"`
	ImageReference string   `json:"imageReference"`
}

type generateResult struct {
	Questions []QuestionPayload `json:"questions"`
	QuizName  string            `json:"quizName"`
	Metadata  map[string]any    `json:"metadata"`
}

type generateResponse struct {
	generateResult
	Success *bool           `json:"success,omitempty"`
	Data    *generateResult `json:"data,omitempty"`
}

func newGenerateRequest(req domain.GenerationRequest) generateRequest {
	out := generateRequest{
		Configuration: configurationPayload{
			Difficulty:        string(req.Configuration.Difficulty),
			NumberOfQuestions: req.Configuration.QuestionCount,
			TimeDuration:      req.Configuration.TimeLimitSeconds,
		},
		Source: sourcePayload{
			Kind:     string(req.Source.Kind),
			URL:      req.Source.URL,
			Document: req.Source.DocumentText,
		},
	}
	for _, t := range req.Source.Topics {
		out.Source.SelectedTopics = append(out.Source.SelectedTopics, topicPayload(t))
	}
	return out
}

// Generate makes exactly one call to the generation service.
func (c *HTTPClient) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	l := logger.Get()

	payload, err := json.Marshal(newGenerateRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		l.Warn("generation service call failed", zap.Error(err))
		return nil, upstream.Classify(domain.UpstreamGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, upstream.Classify(domain.UpstreamGeneration, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upErr := upstream.FromResponse(domain.UpstreamGeneration, resp.StatusCode, resp.Header, body)
		l.Warn("generation service rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(upErr.Kind)),
			zap.String("code", upErr.Code))
		return nil, upErr
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, upstream.Malformed(domain.UpstreamGeneration, fmt.Errorf("decode generation response: %w", err))
	}
	result := decoded.generateResult
	if decoded.Data != nil {
		result = *decoded.Data
	}
	if decoded.Success != nil && !*decoded.Success {
		return nil, upstream.Malformed(domain.UpstreamGeneration, errors.New("generation response reported failure without error details"))
	}

	questions, err := ToDomainQuestions(result.Questions)
	if err != nil {
		return nil, upstream.Malformed(domain.UpstreamGeneration, err)
	}

	return &domain.GenerationResult{
		Questions:   questions,
		SessionName: result.QuizName,
		Metadata:    result.Metadata,
	}, nil
}

// ToDomainQuestions converts wire questions, accepting either "text" or
// "question" for the prompt and the service's lowercase difficulties.
func ToDomainQuestions(in []QuestionPayload) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(in))
	for i, p := range in {
		text := p.Text
		if text == "" {
			text = p.Question
		}
		q := domain.Question{
			ID:             p.ID,
			Text:           text,
			Options:        p.Options,
			CorrectAnswer:  p.CorrectAnswer,
			Explanation:    p.Explanation,
			CodeSnippet:    p.CodeSnippet,
			ImageReference: p.ImageReference,
		}
		if p.Difficulty != "" {
			d, err := domain.ParseDifficulty(p.Difficulty)
			if err != nil {
				return nil, fmt.Errorf("question %d: %w", i+1, err)
			}
			q.Difficulty = d
		}
		out = append(out, q)
	}
	return out, nil
}
