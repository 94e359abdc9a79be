package domain

import (
	"context"
	"time"
)

// GenerationRequest asks the generation service for a question set.
type GenerationRequest struct {
	Configuration Configuration
	Source        ContentSource
}

// GenerationResult is what the generation service produced.
type GenerationResult struct {
	Questions   []Question
	SessionName string
	Metadata    map[string]any
}

// GenerationService produces questions for a new session.
// Failures are returned as *UpstreamError.
type GenerationService interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// AnalysisRequest carries a finished session to the analysis service.
type AnalysisRequest struct {
	SessionID       string
	UserID          string
	Configuration   Configuration
	Questions       []Question
	Answers         AnswerSheet
	Outcome         Outcome
	OriginalContent string
}

// AnalysisService produces qualitative feedback for a finished session.
// Failures are returned as *UpstreamError.
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error)
}

// SessionRepository persists the quiz aggregate.
type SessionRepository interface {
	// Create stores the session row and all of its questions atomically.
	Create(ctx context.Context, session *QuizSession) error

	// GetByID loads the whole aggregate. It returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*QuizSession, error)

	// UpsertAnswer inserts or replaces the answer to one question.
	UpsertAnswer(ctx context.Context, sessionID, questionID, answer string, at time.Time) error

	// UpdateLifecycle writes status, timestamps, pause fields and outcome.
	UpdateLifecycle(ctx context.Context, session *QuizSession) error

	// SaveAnalysis attaches analysis to a session and stamps UpdatedAt with at.
	SaveAnalysis(ctx context.Context, sessionID string, analysis *Analysis, at time.Time) error
}

// TransactionManager runs fn inside a single store transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventType names a session lifecycle event.
type EventType string

const (
	EventSessionCreated   EventType = "session.created"
	EventSessionStarted   EventType = "session.started"
	EventSessionCompleted EventType = "session.completed"
	EventSessionExpired   EventType = "session.expired"
)

// SessionEvent is published after a lifecycle change has been committed.
type SessionEvent struct {
	Type       EventType `json:"type"`
	SessionID  string    `json:"sessionId"`
	UserID     string    `json:"userId"`
	Status     Status    `json:"status"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher delivers lifecycle events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event SessionEvent) error
	Close() error
}
