package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/repository/models"
	"quiz-assessment/internal/util"

	"github.com/jmoiron/sqlx"
)

const (
	insertSessionQuery = `INSERT INTO QUIZ_SESSIONS (ID, USER_ID, CONTENT_INPUT_ID, NAME, DIFFICULTY, QUESTION_COUNT, TIME_LIMIT_SECONDS, STATUS, START_TIME, END_TIME, PAUSE_REASON, PAUSED_AT, PAUSE_COUNT, SCORE, CORRECT_COUNT, INCORRECT_COUNT, METADATA, ANALYSIS, CREATED_AT, UPDATED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12, :13, :14, :15, :16, :17, :18, :19, :20)`

	insertQuestionQuery = `INSERT INTO QUIZ_SESSION_QUESTIONS (SESSION_ID, QUESTION_ID, POSITION, TEXT, OPTIONS, CORRECT_ANSWER, DIFFICULTY, EXPLANATION, CODE_SNIPPET, IMAGE_REFERENCE)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10)`

	selectSessionQuery = `SELECT ID, USER_ID, CONTENT_INPUT_ID, NAME, DIFFICULTY, QUESTION_COUNT, TIME_LIMIT_SECONDS, STATUS, START_TIME, END_TIME, PAUSE_REASON, PAUSED_AT, PAUSE_COUNT, SCORE, CORRECT_COUNT, INCORRECT_COUNT, METADATA, ANALYSIS, CREATED_AT, UPDATED_AT
	          FROM QUIZ_SESSIONS WHERE ID = :1`

	selectQuestionsQuery = `SELECT SESSION_ID, QUESTION_ID, POSITION, TEXT, OPTIONS, CORRECT_ANSWER, DIFFICULTY, EXPLANATION, CODE_SNIPPET, IMAGE_REFERENCE
	          FROM QUIZ_SESSION_QUESTIONS WHERE SESSION_ID = :1 ORDER BY POSITION`

	selectAnswersQuery = `SELECT SESSION_ID, QUESTION_ID, ANSWER, ANSWERED_AT
	          FROM QUIZ_SESSION_ANSWERS WHERE SESSION_ID = :1`

	// Oracle has no ON CONFLICT; MERGE keyed by (SESSION_ID, QUESTION_ID) gives last-write-wins.
	upsertAnswerQuery = `MERGE INTO QUIZ_SESSION_ANSWERS a
	          USING (SELECT :1 AS SESSION_ID, :2 AS QUESTION_ID FROM dual) s
	          ON (a.SESSION_ID = s.SESSION_ID AND a.QUESTION_ID = s.QUESTION_ID)
	          WHEN MATCHED THEN UPDATE SET a.ANSWER = :3, a.ANSWERED_AT = :4
	          WHEN NOT MATCHED THEN INSERT (SESSION_ID, QUESTION_ID, ANSWER, ANSWERED_AT) VALUES (:5, :6, :7, :8)`

	updateLifecycleQuery = `UPDATE QUIZ_SESSIONS SET STATUS = :1, START_TIME = :2, END_TIME = :3, PAUSE_REASON = :4, PAUSED_AT = :5, PAUSE_COUNT = :6, SCORE = :7, CORRECT_COUNT = :8, INCORRECT_COUNT = :9, UPDATED_AT = :10
	          WHERE ID = :11`

	updateAnalysisQuery = `UPDATE QUIZ_SESSIONS SET ANALYSIS = :1, UPDATED_AT = :2 WHERE ID = :3`
)

// SessionDatabaseAdapter stores quiz sessions in Oracle through sqlx.
type SessionDatabaseAdapter struct {
	db *sqlx.DB
}

// NewSessionDatabaseAdapter creates a new SessionDatabaseAdapter instance
func NewSessionDatabaseAdapter(db *sqlx.DB) domain.SessionRepository {
	return &SessionDatabaseAdapter{db: db}
}

var _ domain.SessionRepository = (*SessionDatabaseAdapter)(nil)

func fromDomainSession(s *domain.QuizSession) *models.QuizSession {
	row := &models.QuizSession{
		ID:               s.ID,
		UserID:           s.UserID,
		ContentInputID:   util.StringToNullString(s.ContentInputID),
		Name:             util.StringToNullString(s.Name),
		Difficulty:       string(s.Configuration.Difficulty),
		QuestionCount:    s.Configuration.QuestionCount,
		TimeLimitSeconds: s.Configuration.TimeLimitSeconds,
		Status:           string(s.Status),
		StartTime:        util.TimePtrToNullTime(s.StartTime),
		EndTime:          util.TimePtrToNullTime(s.EndTime),
		PauseReason:      util.StringToNullString(string(s.PauseReason)),
		PausedAt:         util.TimePtrToNullTime(s.PausedAt),
		PauseCount:       s.PauseCount,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.Outcome != nil {
		row.Score = util.IntToNullInt64(s.Outcome.Score)
		row.CorrectCount = util.IntToNullInt64(s.Outcome.CorrectCount)
		row.IncorrectCount = util.IntToNullInt64(s.Outcome.IncorrectCount)
	}
	if len(s.Metadata) > 0 {
		row.Metadata = models.NewJSONDocument(s.Metadata)
	}
	if s.Analysis != nil {
		row.Analysis = models.NewJSONDocument(s.Analysis)
	}
	return row
}

func fromDomainQuestion(sessionID string, position int, q domain.Question) *models.QuizSessionQuestion {
	return &models.QuizSessionQuestion{
		SessionID:      sessionID,
		QuestionID:     q.ID,
		Position:       position,
		Text:           util.StringToNullString(q.Text),
		Options:        q.Options,
		CorrectAnswer:  q.CorrectAnswer,
		Difficulty:     util.StringToNullString(string(q.Difficulty)),
		Explanation:    util.StringToNullString(q.Explanation),
		CodeSnippet:    util.StringToNullString(q.CodeSnippet),
		ImageReference: util.StringToNullString(q.ImageReference),
	}
}

func toDomainQuestion(row *models.QuizSessionQuestion) domain.Question {
	options := []string(row.Options)
	if options == nil {
		options = []string{}
	}
	return domain.Question{
		ID:             row.QuestionID,
		Text:           row.Text.String,
		Options:        options,
		CorrectAnswer:  row.CorrectAnswer,
		Difficulty:     domain.Difficulty(row.Difficulty.String),
		Explanation:    row.Explanation.String,
		CodeSnippet:    row.CodeSnippet.String,
		ImageReference: row.ImageReference.String,
	}
}

func toDomainSession(row *models.QuizSession, questionRows []models.QuizSessionQuestion, answerRows []models.QuizSessionAnswer) (*domain.QuizSession, error) {
	status, err := domain.ParseStatus(row.Status)
	if err != nil {
		return nil, err
	}

	questions := make([]domain.Question, 0, len(questionRows))
	for i := range questionRows {
		questions = append(questions, toDomainQuestion(&questionRows[i]))
	}

	var answers domain.AnswerSheet
	for _, a := range answerRows {
		answers.Set(a.QuestionID, a.Answer)
	}

	s := &domain.QuizSession{
		ID:             row.ID,
		UserID:         row.UserID,
		ContentInputID: row.ContentInputID.String,
		Name:           row.Name.String,
		Configuration: domain.Configuration{
			Difficulty:       domain.Difficulty(row.Difficulty),
			QuestionCount:    row.QuestionCount,
			TimeLimitSeconds: row.TimeLimitSeconds,
		},
		Questions:   questions,
		Answers:     answers,
		Status:      status,
		StartTime:   util.NullTimeToPtr(row.StartTime),
		EndTime:     util.NullTimeToPtr(row.EndTime),
		PauseReason: domain.PauseReason(row.PauseReason.String),
		PausedAt:    util.NullTimeToPtr(row.PausedAt),
		PauseCount:  row.PauseCount,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}

	if row.Score.Valid {
		outcome := domain.RestoreOutcome(int(row.Score.Int64), int(row.CorrectCount.Int64), int(row.IncorrectCount.Int64), questions, answers)
		s.Outcome = &outcome
	}

	var metadata map[string]any
	if ok, err := row.Metadata.Decode(&metadata); err != nil {
		return nil, err
	} else if ok {
		s.Metadata = metadata
	}

	var analysis domain.Analysis
	if ok, err := row.Analysis.Decode(&analysis); err != nil {
		return nil, err
	} else if ok {
		analysis.Normalize()
		s.Analysis = &analysis
	}
	return s, nil
}

// Create inserts the session row and its questions in one transaction.
func (a *SessionDatabaseAdapter) Create(ctx context.Context, session *domain.QuizSession) error {
	row := fromDomainSession(session)

	err := runInTx(ctx, a.db, func(txCtx context.Context) error {
		ex := GetExecutor(txCtx, a.db)

		if _, err := ex.ExecContext(txCtx, insertSessionQuery,
			row.ID,
			row.UserID,
			row.ContentInputID,
			row.Name,
			row.Difficulty,
			row.QuestionCount,
			row.TimeLimitSeconds,
			row.Status,
			row.StartTime,
			row.EndTime,
			row.PauseReason,
			row.PausedAt,
			row.PauseCount,
			row.Score,
			row.CorrectCount,
			row.IncorrectCount,
			row.Metadata,
			row.Analysis,
			row.CreatedAt,
			row.UpdatedAt,
		); err != nil {
			return domain.NewPersistenceError("failed to insert quiz session", err)
		}

		for i, q := range session.Questions {
			qr := fromDomainQuestion(session.ID, i+1, q)
			if _, err := ex.ExecContext(txCtx, insertQuestionQuery,
				qr.SessionID,
				qr.QuestionID,
				qr.Position,
				qr.Text,
				qr.Options,
				qr.CorrectAnswer,
				qr.Difficulty,
				qr.Explanation,
				qr.CodeSnippet,
				qr.ImageReference,
			); err != nil {
				return domain.NewPersistenceError("failed to insert quiz session question", err).
					WithContext("questionId", q.ID)
			}
		}
		return nil
	})
	return asPersistenceError("failed to create quiz session", err)
}

// GetByID reads the session, its questions and its answers in one transaction.
// It returns nil, nil when the session does not exist.
func (a *SessionDatabaseAdapter) GetByID(ctx context.Context, id string) (*domain.QuizSession, error) {
	var session *domain.QuizSession

	err := runInTx(ctx, a.db, func(txCtx context.Context) error {
		ex := GetExecutor(txCtx, a.db)

		var row models.QuizSession
		if err := ex.GetContext(txCtx, &row, selectSessionQuery, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return domain.NewPersistenceError("failed to get quiz session", err)
		}

		var questionRows []models.QuizSessionQuestion
		if err := ex.SelectContext(txCtx, &questionRows, selectQuestionsQuery, id); err != nil {
			return domain.NewPersistenceError("failed to get quiz session questions", err)
		}

		var answerRows []models.QuizSessionAnswer
		if err := ex.SelectContext(txCtx, &answerRows, selectAnswersQuery, id); err != nil {
			return domain.NewPersistenceError("failed to get quiz session answers", err)
		}

		s, err := toDomainSession(&row, questionRows, answerRows)
		if err != nil {
			return domain.NewPersistenceError("failed to decode quiz session", err)
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, asPersistenceError("failed to get quiz session", err)
	}
	return session, nil
}

// UpsertAnswer inserts or replaces one answer.
func (a *SessionDatabaseAdapter) UpsertAnswer(ctx context.Context, sessionID, questionID, answer string, at time.Time) error {
	ex := GetExecutor(ctx, a.db)
	_, err := ex.ExecContext(ctx, upsertAnswerQuery,
		sessionID, questionID,
		answer, at,
		sessionID, questionID, answer, at,
	)
	if err != nil {
		return domain.NewPersistenceError("failed to upsert answer", err).
			WithContext("questionId", questionID)
	}
	return nil
}

// UpdateLifecycle writes every lifecycle column in one statement.
func (a *SessionDatabaseAdapter) UpdateLifecycle(ctx context.Context, session *domain.QuizSession) error {
	row := fromDomainSession(session)
	ex := GetExecutor(ctx, a.db)

	result, err := ex.ExecContext(ctx, updateLifecycleQuery,
		row.Status,
		row.StartTime,
		row.EndTime,
		row.PauseReason,
		row.PausedAt,
		row.PauseCount,
		row.Score,
		row.CorrectCount,
		row.IncorrectCount,
		row.UpdatedAt,
		row.ID,
	)
	if err != nil {
		return domain.NewPersistenceError("failed to update quiz session", err)
	}
	return requireAffected(result, session.ID)
}

// SaveAnalysis stores the analysis document on the session row.
func (a *SessionDatabaseAdapter) SaveAnalysis(ctx context.Context, sessionID string, analysis *domain.Analysis, at time.Time) error {
	ex := GetExecutor(ctx, a.db)

	result, err := ex.ExecContext(ctx, updateAnalysisQuery,
		models.NewJSONDocument(analysis),
		at,
		sessionID,
	)
	if err != nil {
		return domain.NewPersistenceError("failed to save analysis", err)
	}
	return requireAffected(result, sessionID)
}

func requireAffected(result sql.Result, sessionID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return domain.NewPersistenceError("failed to read affected rows", err)
	}
	if n == 0 {
		return domain.NewSessionNotFoundError(sessionID)
	}
	return nil
}

// asPersistenceError keeps domain errors intact and wraps anything else.
func asPersistenceError(message string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return domain.NewPersistenceError(message, err)
}
