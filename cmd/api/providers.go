package main

import (
	"fmt"
	"net/http"

	"quiz-assessment/internal/adapter/analysis"
	"quiz-assessment/internal/adapter/generation"
	"quiz-assessment/internal/config"
	"quiz-assessment/internal/domain"

	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultOllamaModel = "qwen3:0.6b"

// newCompleter builds the langchaingo model behind the "ollama" and
// "openai" providers. The service applies its own deadline, so the HTTP
// client timeout only guards against a hung connection.
func newCompleter(cfg config.UpstreamConfig) (generation.Completer, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout + cfg.Timeout/2}

	switch cfg.Provider {
	case "ollama":
		model := cfg.Model
		if model == "" {
			model = defaultOllamaModel
		}
		return ollama.New(ollama.WithServerURL(cfg.BaseURL), ollama.WithModel(model), ollama.WithHTTPClient(httpClient))
	case "openai":
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithHTTPClient(httpClient)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	}
	return nil, fmt.Errorf("provider %q is not an LLM provider", cfg.Provider)
}

func newGenerationService(cfg config.UpstreamConfig) (domain.GenerationService, error) {
	switch cfg.Provider {
	case "http":
		return generation.NewHTTPClient(cfg.BaseURL, &http.Client{}), nil
	case "static":
		bank, err := generation.LoadQuestionBank(cfg.QuestionBank)
		if err != nil {
			return nil, err
		}
		return generation.NewStaticGenerator(bank)
	case "ollama", "openai":
		llm, err := newCompleter(cfg)
		if err != nil {
			return nil, err
		}
		return generation.NewLLMGenerator(llm), nil
	}
	return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
}

// newAnalysisService returns nil for provider "none".
func newAnalysisService(cfg config.UpstreamConfig) (domain.AnalysisService, error) {
	switch cfg.Provider {
	case "none":
		return nil, nil
	case "http":
		return analysis.NewHTTPClient(cfg.BaseURL, &http.Client{}), nil
	case "ollama", "openai":
		llm, err := newCompleter(cfg)
		if err != nil {
			return nil, err
		}
		return analysis.NewLLMAnalyzer(llm), nil
	}
	return nil, fmt.Errorf("unsupported analysis provider: %s", cfg.Provider)
}
