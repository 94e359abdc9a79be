package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
)

// ParseStatus rejects anything outside the closed set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusExpired:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

// IsTerminal reports whether no further lifecycle operation is accepted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// PauseReason records why an in-progress session was paused.
type PauseReason string

const (
	PauseTabChange PauseReason = "tab-change"
	PauseManual    PauseReason = "manual"
)

func ParsePauseReason(s string) (PauseReason, error) {
	switch PauseReason(s) {
	case PauseTabChange, PauseManual:
		return PauseReason(s), nil
	}
	return "", NewValidationError(fmt.Sprintf("invalid pause reason: %q", s)).WithContext("field", "reason")
}

// Operation names a lifecycle operation for transition checks.
type Operation string

const (
	OpStart        Operation = "start"
	OpRecordAnswer Operation = "record-answer"
	OpPause        Operation = "pause"
	OpResume       Operation = "resume"
	OpFinish       Operation = "finish"
	OpExpire       Operation = "expire"
	OpAnalyze      Operation = "analyze"
)

var transitions = map[Operation][]Status{
	OpStart:        {StatusPending},
	OpRecordAnswer: {StatusInProgress},
	OpPause:        {StatusInProgress},
	OpResume:       {StatusInProgress},
	OpFinish:       {StatusInProgress},
	OpExpire:       {StatusPending, StatusInProgress},
	OpAnalyze:      {StatusCompleted, StatusExpired},
}

// CheckTransition returns a conflict error unless op may run in status.
func CheckTransition(status Status, op Operation) error {
	for _, allowed := range transitions[op] {
		if status == allowed {
			return nil
		}
	}
	return NewConflictError(fmt.Sprintf("cannot %s a session that is %s", op, status)).
		WithContext("status", string(status)).
		WithContext("operation", string(op))
}

// DifficultyTally counts results for questions of one difficulty.
type DifficultyTally struct {
	Total      int `json:"total"`
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
}

// Outcome is the scored result of a finished or expired session.
type Outcome struct {
	Score           int                            `json:"score"`
	CorrectCount    int                            `json:"correctCount"`
	IncorrectCount  int                            `json:"incorrectCount"`
	UnansweredCount int                            `json:"unansweredCount"`
	TotalQuestions  int                            `json:"totalQuestions"`
	ByDifficulty    map[Difficulty]DifficultyTally `json:"byDifficulty,omitempty"`
}

// Analysis is the qualitative feedback produced after a session ends.
type Analysis struct {
	PerformanceReview string    `json:"performanceReview"`
	WeakAreas         []string  `json:"weakAreas"`
	Suggestions       []string  `json:"suggestions"`
	Strengths         []string  `json:"strengths"`
	ImprovementAreas  []string  `json:"improvementAreas"`
	DetailedAnalysis  string    `json:"detailedAnalysis"`
	TopicsToReview    []string  `json:"topicsToReview"`
	AnalyzedAt        time.Time `json:"analyzedAt"`
}

// Normalize replaces absent lists with empty ones.
func (a *Analysis) Normalize() {
	for _, list := range []*[]string{&a.WeakAreas, &a.Suggestions, &a.Strengths, &a.ImprovementAreas, &a.TopicsToReview} {
		if *list == nil {
			*list = []string{}
		}
	}
}

// QuizSession is the quiz aggregate.
type QuizSession struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	ContentInputID string         `json:"contentInputId,omitempty"`
	Name           string         `json:"name,omitempty"`
	Configuration  Configuration  `json:"configuration"`
	Questions      []Question     `json:"questions"`
	Answers        AnswerSheet    `json:"answers"`
	Status         Status         `json:"status"`
	StartTime      *time.Time     `json:"startTime,omitempty"`
	EndTime        *time.Time     `json:"endTime,omitempty"`
	PauseReason    PauseReason    `json:"pauseReason,omitempty"`
	PausedAt       *time.Time     `json:"pausedAt,omitempty"`
	PauseCount     int            `json:"pauseCount"`
	Outcome        *Outcome       `json:"outcome,omitempty"`
	Analysis       *Analysis      `json:"analysis,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// NewQuizSession returns a pending session with no answers.
func NewQuizSession(id, userID string, cfg Configuration, questions []Question, now time.Time) *QuizSession {
	if questions == nil {
		questions = []Question{}
	}
	return &QuizSession{
		ID:            id,
		UserID:        userID,
		Configuration: cfg,
		Questions:     questions,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Question looks up a question by id.
func (s *QuizSession) Question(id string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// IsPaused reports whether the in-progress session is currently paused.
func (s *QuizSession) IsPaused() bool {
	return s.PausedAt != nil
}

// ValidateAnswer checks that answer is a legal choice for questionID.
func (s *QuizSession) ValidateAnswer(questionID, answer string) error {
	q, ok := s.Question(questionID)
	if !ok {
		return NewValidationError(fmt.Sprintf("question %s does not belong to session %s", questionID, s.ID)).
			WithContext("questionId", questionID)
	}
	if !q.HasOption(answer) {
		return NewValidationError(fmt.Sprintf("answer is not an option of question %s", questionID)).
			WithContext("questionId", questionID)
	}
	return nil
}

// Start moves a pending session to in-progress.
func (s *QuizSession) Start(now time.Time) error {
	if err := CheckTransition(s.Status, OpStart); err != nil {
		return err
	}
	s.Status = StatusInProgress
	s.StartTime = &now
	s.EndTime = nil
	s.UpdatedAt = now
	return nil
}

func (s *QuizSession) Pause(reason PauseReason, now time.Time) error {
	if err := CheckTransition(s.Status, OpPause); err != nil {
		return err
	}
	s.PauseReason = reason
	s.PausedAt = &now
	s.PauseCount++
	s.UpdatedAt = now
	return nil
}

func (s *QuizSession) Resume(now time.Time) error {
	if err := CheckTransition(s.Status, OpResume); err != nil {
		return err
	}
	s.clearPause()
	s.UpdatedAt = now
	return nil
}

// Complete scores the session and marks it completed.
func (s *QuizSession) Complete(now time.Time) error {
	if err := CheckTransition(s.Status, OpFinish); err != nil {
		return err
	}
	s.close(StatusCompleted, now)
	return nil
}

// Expire scores whatever was answered and marks the session expired.
func (s *QuizSession) Expire(now time.Time) error {
	if err := CheckTransition(s.Status, OpExpire); err != nil {
		return err
	}
	s.close(StatusExpired, now)
	return nil
}

func (s *QuizSession) close(status Status, now time.Time) {
	outcome := ScoreSession(s.Questions, s.Answers)
	s.Outcome = &outcome
	s.Status = status
	s.EndTime = &now
	s.clearPause()
	s.UpdatedAt = now
}

func (s *QuizSession) clearPause() {
	s.PauseReason = ""
	s.PausedAt = nil
}

// Clone returns a deep copy of the aggregate.
func (s *QuizSession) Clone() *QuizSession {
	out := *s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	out.Answers = s.Answers.Clone()
	out.StartTime = cloneTime(s.StartTime)
	out.EndTime = cloneTime(s.EndTime)
	out.PausedAt = cloneTime(s.PausedAt)
	if s.Outcome != nil {
		o := *s.Outcome
		if s.Outcome.ByDifficulty != nil {
			o.ByDifficulty = make(map[Difficulty]DifficultyTally, len(s.Outcome.ByDifficulty))
			for k, v := range s.Outcome.ByDifficulty {
				o.ByDifficulty[k] = v
			}
		}
		out.Outcome = &o
	}
	if s.Analysis != nil {
		a := *s.Analysis
		a.WeakAreas = append([]string(nil), s.Analysis.WeakAreas...)
		a.Suggestions = append([]string(nil), s.Analysis.Suggestions...)
		a.Strengths = append([]string(nil), s.Analysis.Strengths...)
		a.ImprovementAreas = append([]string(nil), s.Analysis.ImprovementAreas...)
		a.TopicsToReview = append([]string(nil), s.Analysis.TopicsToReview...)
		a.Normalize()
		out.Analysis = &a
	}
	if s.Metadata != nil {
		out.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
