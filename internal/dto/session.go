package dto

import (
	"time"

	"quiz-assessment/internal/domain"
)

// ConfigurationRequest is the learner's chosen quiz setup.
type ConfigurationRequest struct {
	Difficulty       string `json:"difficulty" example:"Normal"`
	QuestionCount    int    `json:"questionCount" example:"10"`
	TimeLimitSeconds int    `json:"timeLimitSeconds" example:"600"`
}

type TopicRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Locator string `json:"locator,omitempty"`
}

// SourceRequest carries exactly one of url, documentText or topics.
type SourceRequest struct {
	Kind         string         `json:"kind" example:"url"`
	URL          string         `json:"url,omitempty"`
	DocumentText string         `json:"documentText,omitempty"`
	Topics       []TopicRequest `json:"topics,omitempty"`
}

type QuestionRequest struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	CorrectAnswer  string   `json:"correctAnswer"`
	Difficulty     string   `json:"difficulty,omitempty"`
	Explanation    string   `json:"explanation,omitempty"`
	CodeSnippet    string   `json:"codeSnippet,omitempty"`
	ImageReference string   `json:"imageReference,omitempty"`
}

// CreateSessionRequest creates a session from a content source or from
// caller-supplied questions.
// @Description Request body for creating a quiz session
type CreateSessionRequest struct {
	Name           string               `json:"name,omitempty"`
	ContentInputID string               `json:"contentInputId,omitempty"`
	Configuration  ConfigurationRequest `json:"configuration"`
	Source         *SourceRequest       `json:"source,omitempty"`
	Questions      []QuestionRequest    `json:"questions,omitempty"`
}

type RecordAnswerRequest struct {
	Answer string `json:"answer"`
}

type RecordAnswersRequest struct {
	Answers map[string]string `json:"answers"`
}

type PauseRequest struct {
	Reason string `json:"reason" example:"tab-change"`
}

// QuestionResponse hides the answer key until the session is over.
type QuestionResponse struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	Difficulty     string   `json:"difficulty,omitempty"`
	CodeSnippet    string   `json:"codeSnippet,omitempty"`
	ImageReference string   `json:"imageReference,omitempty"`
	CorrectAnswer  string   `json:"correctAnswer,omitempty"`
	Explanation    string   `json:"explanation,omitempty"`
}

// SessionResponse is the client view of a quiz session.
// @Description Quiz session
type SessionResponse struct {
	ID             string               `json:"id"`
	Name           string               `json:"name,omitempty"`
	ContentInputID string               `json:"contentInputId,omitempty"`
	Configuration  domain.Configuration `json:"configuration"`
	Status         string               `json:"status"`
	Questions      []QuestionResponse   `json:"questions"`
	Answers        domain.AnswerSheet   `json:"answers"`
	StartTime      *time.Time           `json:"startTime,omitempty"`
	EndTime        *time.Time           `json:"endTime,omitempty"`
	PauseReason    string               `json:"pauseReason,omitempty"`
	PausedAt       *time.Time           `json:"pausedAt,omitempty"`
	PauseCount     int                  `json:"pauseCount"`
	Outcome        *domain.Outcome      `json:"outcome,omitempty"`
	Analysis       *domain.Analysis     `json:"analysis,omitempty"`
	Metadata       map[string]any       `json:"metadata,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

func NewSessionResponse(s *domain.QuizSession) SessionResponse {
	reveal := s.Status.IsTerminal()
	questions := make([]QuestionResponse, len(s.Questions))
	for i, q := range s.Questions {
		questions[i] = QuestionResponse{
			ID:             q.ID,
			Text:           q.Text,
			Options:        q.Options,
			Difficulty:     string(q.Difficulty),
			CodeSnippet:    q.CodeSnippet,
			ImageReference: q.ImageReference,
		}
		if reveal {
			questions[i].CorrectAnswer = q.CorrectAnswer
			questions[i].Explanation = q.Explanation
		}
	}

	return SessionResponse{
		ID:             s.ID,
		Name:           s.Name,
		ContentInputID: s.ContentInputID,
		Configuration:  s.Configuration,
		Status:         string(s.Status),
		Questions:      questions,
		Answers:        s.Answers,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		PauseReason:    string(s.PauseReason),
		PausedAt:       s.PausedAt,
		PauseCount:     s.PauseCount,
		Outcome:        s.Outcome,
		Analysis:       s.Analysis,
		Metadata:       s.Metadata,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

type AnswersResponse struct {
	SessionID string             `json:"sessionId"`
	Answers   domain.AnswerSheet `json:"answers"`
}

type OutcomeResponse struct {
	SessionID string         `json:"sessionId"`
	Outcome   domain.Outcome `json:"outcome"`
}

type AnalysisResponse struct {
	SessionID string          `json:"sessionId"`
	Analysis  domain.Analysis `json:"analysis"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
