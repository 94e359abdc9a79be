package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quiz-assessment/internal/adapter/upstream"
	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/logger"

	"go.uber.org/zap"
)

const analyzePath = "/quiz/analyze"

const maxResponseBytes = 1 << 20

// HTTPClient calls the remote analysis service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewHTTPClient(baseURL string, httpClient *http.Client) domain.AnalysisService {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		now:        time.Now,
	}
}

type quizPayload struct {
	ID            string               `json:"id"`
	Questions     []domain.Question    `json:"questions"`
	Configuration configurationPayload `json:"configuration"`
}

type configurationPayload struct {
	Difficulty        string `json:"difficulty"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
	TimeDuration      int    `json:"timeDuration"`
}

type analyzeRequest struct {
	Quiz            quizPayload        `json:"quiz"`
	Answers         domain.AnswerSheet `json:"answers"`
	OriginalContent string             `json:"originalContent,omitempty"`
	UserID          string             `json:"userId,omitempty"`
	Outcome         domain.Outcome     `json:"outcome"`
}

// analysisPayload accepts both the bare analysis and the {success,data} wrapper.
type analysisPayload struct {
	PerformanceReview string   `json:"performanceReview"`
	WeakAreas         []string `json:"weakAreas"`
	Suggestions       []string `json:"suggestions"`
	Strengths         []string `json:"strengths"`
	ImprovementAreas  []string `json:"improvementAreas"`
	DetailedAnalysis  string   `json:"detailedAnalysis"`
	TopicsToReview    []string `json:"topicsToReview"`
}

type analyzeResponse struct {
	analysisPayload
	Data *analysisPayload `json:"data,omitempty"`
}

func newAnalyzeRequest(req domain.AnalysisRequest) analyzeRequest {
	return analyzeRequest{
		Quiz: quizPayload{
			ID:        req.SessionID,
			Questions: req.Questions,
			Configuration: configurationPayload{
				Difficulty:        string(req.Configuration.Difficulty),
				NumberOfQuestions: req.Configuration.QuestionCount,
				TimeDuration:      req.Configuration.TimeLimitSeconds,
			},
		},
		Answers:         req.Answers,
		OriginalContent: req.OriginalContent,
		UserID:          req.UserID,
		Outcome:         req.Outcome,
	}
}

func (p analysisPayload) toDomain(at time.Time) (*domain.Analysis, error) {
	if strings.TrimSpace(p.PerformanceReview) == "" && strings.TrimSpace(p.DetailedAnalysis) == "" {
		return nil, fmt.Errorf("analysis response has neither a performance review nor a detailed analysis")
	}
	a := &domain.Analysis{
		PerformanceReview: p.PerformanceReview,
		WeakAreas:         p.WeakAreas,
		Suggestions:       p.Suggestions,
		Strengths:         p.Strengths,
		ImprovementAreas:  p.ImprovementAreas,
		DetailedAnalysis:  p.DetailedAnalysis,
		TopicsToReview:    p.TopicsToReview,
		AnalyzedAt:        at,
	}
	a.Normalize()
	return a, nil
}

func (c *HTTPClient) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error) {
	l := logger.Get()

	payload, err := json.Marshal(newAnalyzeRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		l.Warn("analysis service call failed", zap.String("session_id", req.SessionID), zap.Error(err))
		return nil, upstream.Classify(domain.UpstreamAnalysis, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, upstream.Classify(domain.UpstreamAnalysis, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstream.FromResponse(domain.UpstreamAnalysis, resp.StatusCode, resp.Header, body)
	}

	var decoded analyzeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, upstream.Malformed(domain.UpstreamAnalysis, fmt.Errorf("decode analysis response: %w", err))
	}
	result := decoded.analysisPayload
	if decoded.Data != nil {
		result = *decoded.Data
	}

	analysis, err := result.toDomain(c.now())
	if err != nil {
		return nil, upstream.Malformed(domain.UpstreamAnalysis, err)
	}
	return analysis, nil
}
