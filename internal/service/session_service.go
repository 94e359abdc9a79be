package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-assessment/internal/config"
	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/logger"
	"quiz-assessment/internal/util"

	"go.uber.org/zap"
)

// Metadata keys the service writes on generated sessions.
const (
	MetadataSourceKind = "sourceKind"
	MetadataSourceText = "sourceText"
)

// CreateSessionInput describes a new session. Source and Questions are
// mutually exclusive: with no Source the supplied questions are used as-is.
type CreateSessionInput struct {
	UserID         string
	Configuration  domain.Configuration
	ContentInputID string
	Name           string
	Source         *domain.ContentSource
	Questions      []domain.Question
}

// SessionService drives the quiz session lifecycle. Every operation
// takes the caller's user id and rejects sessions the caller does not own.
type SessionService interface {
	Create(ctx context.Context, in CreateSessionInput) (*domain.QuizSession, error)
	Start(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error)
	RecordAnswer(ctx context.Context, userID, sessionID, questionID, answer string) (domain.AnswerSheet, error)
	RecordAnswers(ctx context.Context, userID, sessionID string, answers map[string]string) (domain.AnswerSheet, error)
	Pause(ctx context.Context, userID, sessionID string, reason domain.PauseReason) (*domain.QuizSession, error)
	Resume(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error)
	Finish(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error)
	Expire(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error)
	Analyze(ctx context.Context, userID, sessionID string) (*domain.Analysis, error)
	Get(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error)
	GetOutcome(ctx context.Context, userID, sessionID string) (*domain.Outcome, error)
}

type sessionService struct {
	repo      domain.SessionRepository
	txManager domain.TransactionManager
	generator domain.GenerationService
	analyzer  domain.AnalysisService
	publisher domain.EventPublisher
	cache     *sessionCache
	locks     *sessionLocks

	generationTimeout time.Duration
	analysisTimeout   time.Duration
	now               func() time.Time
}

// NewSessionService wires the lifecycle engine. analyzer, publisher and
// cache may be nil.
func NewSessionService(
	repo domain.SessionRepository,
	txManager domain.TransactionManager,
	generator domain.GenerationService,
	analyzer domain.AnalysisService,
	publisher domain.EventPublisher,
	cache domain.Cache,
	cfg *config.Config,
) SessionService {
	generationTimeout := config.DefaultGenerationTimeout
	analysisTimeout := config.DefaultAnalysisTimeout
	ttl := config.DefaultSessionTTL
	if cfg != nil {
		if cfg.Generation.Timeout > 0 {
			generationTimeout = cfg.Generation.Timeout
		}
		if cfg.Analysis.Timeout > 0 {
			analysisTimeout = cfg.Analysis.Timeout
		}
		if cfg.Cache.SessionTTL > 0 {
			ttl = cfg.Cache.SessionTTL
		}
	}

	locks := newSessionLocks()
	return &sessionService{
		repo:              repo,
		txManager:         txManager,
		generator:         generator,
		analyzer:          analyzer,
		publisher:         publisher,
		cache:             newSessionCache(cache, ttl, locks),
		locks:             locks,
		generationTimeout: generationTimeout,
		analysisTimeout:   analysisTimeout,
		now:               time.Now,
	}
}

func (s *sessionService) Create(ctx context.Context, in CreateSessionInput) (*domain.QuizSession, error) {
	if in.UserID == "" {
		return nil, domain.NewValidationError("user id is required").WithContext("field", "userId")
	}
	cfg := in.Configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		questions []domain.Question
		name      = in.Name
		metadata  map[string]any
	)

	if in.Source == nil {
		if err := domain.ValidateQuestions(in.Questions); err != nil {
			return nil, err
		}
		if len(in.Questions) > cfg.QuestionCount {
			return nil, domain.NewValidationError(fmt.Sprintf("%d questions supplied but the configuration allows %d", len(in.Questions), cfg.QuestionCount)).
				WithContext("field", "questions")
		}
		questions = in.Questions
	} else {
		if err := in.Source.Validate(); err != nil {
			return nil, err
		}
		result, err := s.generate(ctx, cfg, *in.Source)
		if err != nil {
			return nil, err
		}
		questions, err = acceptGenerated(result.Questions, &cfg)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = result.SessionName
		}
		metadata = sourceMetadata(result.Metadata, in.Source)
	}

	session := domain.NewQuizSession(util.NewULID(), in.UserID, cfg, questions, s.now().UTC())
	session.ContentInputID = in.ContentInputID
	session.Name = name
	session.Metadata = metadata

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, session)
	})
	if err != nil {
		logger.Get().Error("Failed to persist quiz session",
			zap.String("user_id", in.UserID),
			zap.Int("question_count", len(questions)),
			zap.Error(err))
		return nil, err
	}

	logger.Get().Info("Quiz session created",
		zap.String("session_id", session.ID),
		zap.String("user_id", session.UserID),
		zap.Int("question_count", len(questions)))
	s.publish(ctx, domain.EventSessionCreated, session)
	return session, nil
}

// generate makes the single generation attempt under its deadline.
func (s *sessionService) generate(ctx context.Context, cfg domain.Configuration, source domain.ContentSource) (*domain.GenerationResult, error) {
	if s.generator == nil {
		return nil, domain.NewInternalError("no generation service configured", nil)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	result, err := s.generator.Generate(genCtx, domain.GenerationRequest{Configuration: cfg, Source: source})
	if err != nil {
		upErr := asUpstreamError(genCtx, domain.UpstreamGeneration, err)
		logger.Get().Warn("Question generation failed",
			zap.String("kind", string(upErr.Kind)),
			zap.String("code", upErr.Code),
			zap.Error(err))
		return nil, domain.NewUpstreamServiceError(upErr)
	}
	if result == nil {
		return nil, domain.NewUpstreamServiceError(&domain.UpstreamError{
			Service: domain.UpstreamGeneration,
			Kind:    domain.UpstreamMalformed,
			Err:     errors.New("empty generation result"),
		})
	}
	return result, nil
}

// acceptGenerated fills missing ids, truncates surplus questions and
// shrinks the configured count when fewer came back than were asked for.
func acceptGenerated(generated []domain.Question, cfg *domain.Configuration) ([]domain.Question, error) {
	malformed := func(err error) error {
		return domain.NewUpstreamServiceError(&domain.UpstreamError{
			Service: domain.UpstreamGeneration,
			Kind:    domain.UpstreamMalformed,
			Err:     err,
		})
	}

	if len(generated) == 0 {
		return nil, malformed(errors.New("generation returned no questions"))
	}
	if len(generated) > cfg.QuestionCount {
		generated = generated[:cfg.QuestionCount]
	}

	questions := make([]domain.Question, len(generated))
	for i, q := range generated {
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		if strings.TrimSpace(q.Text) == "" {
			return nil, malformed(fmt.Errorf("generated question %s has no text", q.ID))
		}
		questions[i] = q
	}
	if err := domain.ValidateQuestions(questions); err != nil {
		return nil, malformed(err)
	}

	cfg.QuestionCount = len(questions)
	return questions, nil
}

func sourceMetadata(generated map[string]any, source *domain.ContentSource) map[string]any {
	metadata := make(map[string]any, len(generated)+2)
	for k, v := range generated {
		metadata[k] = v
	}
	metadata[MetadataSourceKind] = string(source.Kind)
	if source.Kind == domain.SourceDocument {
		metadata[MetadataSourceText] = source.DocumentText
	}
	return metadata
}

func (s *sessionService) Start(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error) {
	session, err := s.mutate(ctx, userID, sessionID, func(ctx context.Context, session *domain.QuizSession) error {
		if err := session.Start(s.now().UTC()); err != nil {
			return err
		}
		return s.repo.UpdateLifecycle(ctx, session)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.EventSessionStarted, session)
	return session, nil
}

func (s *sessionService) RecordAnswer(ctx context.Context, userID, sessionID, questionID, answer string) (domain.AnswerSheet, error) {
	session, err := s.mutate(ctx, userID, sessionID, func(ctx context.Context, session *domain.QuizSession) error {
		if err := domain.CheckTransition(session.Status, domain.OpRecordAnswer); err != nil {
			return err
		}
		if err := session.ValidateAnswer(questionID, answer); err != nil {
			return err
		}

		now := s.now().UTC()
		if err := s.repo.UpsertAnswer(ctx, session.ID, questionID, answer, now); err != nil {
			return err
		}
		session.Answers.Set(questionID, answer)
		session.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.AnswerSheet{}, err
	}
	return session.Answers.Clone(), nil
}

// RecordAnswers validates every entry before writing any of them, then
// upserts them all in one transaction.
func (s *sessionService) RecordAnswers(ctx context.Context, userID, sessionID string, answers map[string]string) (domain.AnswerSheet, error) {
	batch := domain.NewAnswerSheet(answers)

	session, err := s.mutate(ctx, userID, sessionID, func(ctx context.Context, session *domain.QuizSession) error {
		if err := domain.CheckTransition(session.Status, domain.OpRecordAnswer); err != nil {
			return err
		}
		if batch.Len() == 0 {
			return domain.NewValidationError("at least one answer is required").WithContext("field", "answers")
		}
		for _, questionID := range batch.Keys() {
			answer, _ := batch.Get(questionID)
			if err := session.ValidateAnswer(questionID, answer); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			for _, questionID := range batch.Keys() {
				answer, _ := batch.Get(questionID)
				if err := s.repo.UpsertAnswer(txCtx, session.ID, questionID, answer, now); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		batch.Each(session.Answers.Set)
		session.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.AnswerSheet{}, err
	}
	return session.Answers.Clone(), nil
}

func (s *sessionService) Pause(ctx context.Context, userID, sessionID string, reason domain.PauseReason) (*domain.QuizSession, error) {
	if _, err := domain.ParsePauseReason(string(reason)); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, sessionID, func(ctx context.Context, session *domain.QuizSession) error {
		if err := session.Pause(reason, s.now().UTC()); err != nil {
			return err
		}
		return s.repo.UpdateLifecycle(ctx, session)
	})
}

func (s *sessionService) Resume(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error) {
	return s.mutate(ctx, userID, sessionID, func(ctx context.Context, session *domain.QuizSession) error {
		if err := session.Resume(s.now().UTC()); err != nil {
			return err
		}
		return s.repo.UpdateLifecycle(ctx, session)
	})
}

// Finish scores and completes the session, then tries to attach analysis.
// Only the first step can fail the call.
func (s *sessionService) Finish(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error) {
	return s.mutate(ctx, userID, sessionID, func(ctx context.Context, session *domain.QuizSession) error {
		if err := session.Complete(s.now().UTC()); err != nil {
			return err
		}
		if err := s.repo.UpdateLifecycle(ctx, session); err != nil {
			return err
		}
		s.cache.invalidate(ctx, session.ID)
		s.publish(ctx, domain.EventSessionCompleted, session)

		s.attachAnalysis(ctx, session)
		return nil
	})
}

// Expire closes the session with whatever answers exist. Sessions that
// never started get no analysis.
func (s *sessionService) Expire(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error) {
	return s.mutate(ctx, userID, sessionID, func(ctx context.Context, session *domain.QuizSession) error {
		started := session.StartTime != nil
		if err := session.Expire(s.now().UTC()); err != nil {
			return err
		}
		if err := s.repo.UpdateLifecycle(ctx, session); err != nil {
			return err
		}
		s.cache.invalidate(ctx, session.ID)
		s.publish(ctx, domain.EventSessionExpired, session)

		if started {
			s.attachAnalysis(ctx, session)
		}
		return nil
	})
}

// attachAnalysis is best effort: every failure is logged and leaves
// session.Analysis untouched.
func (s *sessionService) attachAnalysis(ctx context.Context, session *domain.QuizSession) {
	l := logger.Get().With(zap.String("session_id", session.ID), zap.String("status", string(session.Status)))
	if s.analyzer == nil {
		l.Debug("No analysis service configured, skipping analysis")
		return
	}

	analysis, err := s.analyze(ctx, session)
	if err != nil {
		var kind domain.UpstreamErrorKind
		if upErr, ok := domain.AsUpstreamError(err); ok {
			kind = upErr.Kind
		}
		l.Warn("Analysis failed, session keeps its outcome without analysis",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return
	}

	at := s.now().UTC()
	if err := s.repo.SaveAnalysis(ctx, session.ID, analysis, at); err != nil {
		l.Error("Failed to persist analysis", zap.Error(err))
		return
	}
	session.Analysis = analysis
	session.UpdatedAt = at
}

func (s *sessionService) analyze(ctx context.Context, session *domain.QuizSession) (*domain.Analysis, error) {
	analysisCtx, cancel := context.WithTimeout(ctx, s.analysisTimeout)
	defer cancel()

	analysis, err := s.analyzer.Analyze(analysisCtx, analysisRequest(session))
	if err != nil {
		return nil, domain.NewUpstreamServiceError(asUpstreamError(analysisCtx, domain.UpstreamAnalysis, err))
	}
	if analysis == nil {
		return nil, domain.NewUpstreamServiceError(&domain.UpstreamError{
			Service: domain.UpstreamAnalysis,
			Kind:    domain.UpstreamMalformed,
			Err:     errors.New("empty analysis result"),
		})
	}
	analysis.Normalize()
	if analysis.AnalyzedAt.IsZero() {
		analysis.AnalyzedAt = s.now().UTC()
	}
	return analysis, nil
}

func analysisRequest(session *domain.QuizSession) domain.AnalysisRequest {
	req := domain.AnalysisRequest{
		SessionID:     session.ID,
		UserID:        session.UserID,
		Configuration: session.Configuration,
		Questions:     session.Questions,
		Answers:       session.Answers,
	}
	if session.Outcome != nil {
		req.Outcome = *session.Outcome
	}
	if text, ok := session.Metadata[MetadataSourceText].(string); ok {
		req.OriginalContent = text
	}
	return req
}

// Analyze reruns analysis for a finished session. Unlike Finish, a
// failure is returned to the caller.
func (s *sessionService) Analyze(ctx context.Context, userID, sessionID string) (*domain.Analysis, error) {
	session, err := s.mutate(ctx, userID, sessionID, func(ctx context.Context, session *domain.QuizSession) error {
		if err := domain.CheckTransition(session.Status, domain.OpAnalyze); err != nil {
			return err
		}
		if s.analyzer == nil {
			return domain.NewUpstreamServiceError(&domain.UpstreamError{
				Service: domain.UpstreamAnalysis,
				Kind:    domain.UpstreamUnavailable,
				Err:     errors.New("no analysis service configured"),
			})
		}

		analysis, err := s.analyze(ctx, session)
		if err != nil {
			return err
		}
		at := s.now().UTC()
		if err := s.repo.SaveAnalysis(ctx, session.ID, analysis, at); err != nil {
			return err
		}
		session.Analysis = analysis
		session.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session.Analysis, nil
}

func (s *sessionService) Get(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error) {
	session, err := s.cache.load(ctx, sessionID, func(ctx context.Context) (*domain.QuizSession, error) {
		return s.repo.GetByID(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	if err := checkOwner(session, userID, sessionID); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionService) GetOutcome(ctx context.Context, userID, sessionID string) (*domain.Outcome, error) {
	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.IsTerminal() {
		return nil, domain.NewConflictError(fmt.Sprintf("session is %s and has no outcome yet", session.Status)).
			WithContext("status", string(session.Status))
	}
	if session.Outcome == nil {
		return nil, domain.NewInternalError(fmt.Sprintf("terminal session %s has no outcome", sessionID), nil)
	}
	outcome := *session.Outcome
	return &outcome, nil
}

// mutate runs fn against a fresh copy of the caller's session while
// holding the session's write lock, then drops the cached aggregate.
func (s *sessionService) mutate(ctx context.Context, userID, sessionID string, fn func(ctx context.Context, session *domain.QuizSession) error) (*domain.QuizSession, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(session, userID, sessionID); err != nil {
		return nil, err
	}

	err = fn(ctx, session)
	s.cache.invalidate(ctx, sessionID)
	if err != nil {
		logger.Get().Debug("Session operation rejected",
			zap.String("session_id", sessionID),
			zap.String("code", string(domain.CodeOf(err))),
			zap.Error(err))
		return nil, err
	}
	return session, nil
}

func checkOwner(session *domain.QuizSession, userID, sessionID string) error {
	if session == nil {
		return domain.NewSessionNotFoundError(sessionID)
	}
	if session.UserID != userID {
		return domain.NewAccessDeniedError("session belongs to another user").WithContext("sessionId", sessionID)
	}
	return nil
}

// asUpstreamError keeps an adapter's classification and otherwise
// infers one from the call's context.
func asUpstreamError(ctx context.Context, service domain.UpstreamService, err error) *domain.UpstreamError {
	if upErr, ok := domain.AsUpstreamError(err); ok {
		return upErr
	}
	kind := domain.UpstreamUnavailable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = domain.UpstreamTimeout
	}
	return &domain.UpstreamError{Service: service, Kind: kind, Err: err}
}

func (s *sessionService) publish(ctx context.Context, eventType domain.EventType, session *domain.QuizSession) {
	if s.publisher == nil {
		return
	}
	evt := domain.SessionEvent{
		Type:       eventType,
		SessionID:  session.ID,
		UserID:     session.UserID,
		Status:     session.Status,
		Outcome:    session.Outcome,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		logger.Get().Warn("Failed to publish session event",
			zap.String("type", string(eventType)),
			zap.String("session_id", session.ID),
			zap.Error(err))
	}
}
