package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"quiz-assessment/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupSessionTestDB creates a new sqlx.DB instance and sqlmock for session repository testing.
func setupSessionTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

var sessionColumns = []string{"ID", "USER_ID", "CONTENT_INPUT_ID", "NAME", "DIFFICULTY", "QUESTION_COUNT", "TIME_LIMIT_SECONDS", "STATUS", "START_TIME", "END_TIME", "PAUSE_REASON", "PAUSED_AT", "PAUSE_COUNT", "SCORE", "CORRECT_COUNT", "INCORRECT_COUNT", "METADATA", "ANALYSIS", "CREATED_AT", "UPDATED_AT"}
var questionColumns = []string{"SESSION_ID", "QUESTION_ID", "POSITION", "TEXT", "OPTIONS", "CORRECT_ANSWER", "DIFFICULTY", "EXPLANATION", "CODE_SNIPPET", "IMAGE_REFERENCE"}
var answerColumns = []string{"SESSION_ID", "QUESTION_ID", "ANSWER", "ANSWERED_AT"}

func newTestSession() *domain.QuizSession {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := domain.NewQuizSession("01HSESSION", "user-1", domain.Configuration{
		Difficulty:       domain.DifficultyNormal,
		QuestionCount:    2,
		TimeLimitSeconds: 600,
	}, []domain.Question{
		{ID: "q1", Text: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectAnswer: "Paris", Difficulty: domain.DifficultyEasy},
		{ID: "q2", Text: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4", Explanation: "arithmetic"},
	}, now)
	s.Name = "Basics"
	s.Metadata = map[string]any{"sourceKind": "url"}
	return s
}

func TestSessionDatabaseAdapter_Create(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	repo := NewSessionDatabaseAdapter(db)
	s := newTestSession()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO QUIZ_SESSIONS (")).
		WithArgs(s.ID, s.UserID, nil, "Basics", "Normal", 2, 600, "pending",
			nil, nil, nil, nil, 0, nil, nil, nil,
			`{"sourceKind":"url"}`, nil, s.CreatedAt, s.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO QUIZ_SESSION_QUESTIONS (")).
		WithArgs(s.ID, "q1", 1, "Capital of France?", `["Paris","Rome"]`, "Paris", "Easy", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO QUIZ_SESSION_QUESTIONS (")).
		WithArgs(s.ID, "q2", 2, "2+2?", `["3","4"]`, "4", nil, "arithmetic", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDatabaseAdapter_Create_RollsBackOnQuestionFailure(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	repo := NewSessionDatabaseAdapter(db)
	s := newTestSession()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO QUIZ_SESSIONS (")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO QUIZ_SESSION_QUESTIONS (")).
		WillReturnError(errors.New("ORA-00001: unique constraint violated"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, domain.ErrPersistence, domain.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDatabaseAdapter_Create_UsesAmbientTransaction(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	repo := NewSessionDatabaseAdapter(db)
	txm := NewTransactionManagerAdapter(db)
	s := newTestSession()
	s.Questions = nil

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO QUIZ_SESSIONS (")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := txm.WithTransaction(context.Background(), func(ctx context.Context) error {
		return repo.Create(ctx, s)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDatabaseAdapter_GetByID(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	repo := NewSessionDatabaseAdapter(db)

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	started := created.Add(time.Minute)
	ended := created.Add(5 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM QUIZ_SESSIONS WHERE ID = :1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(sessionColumns).AddRow(
			"s1", "user-1", "content-9", "Basics", "Normal", 2, 600, "completed",
			started, ended, nil, nil, 1, 50, 1, 1,
			`{"sourceKind":"document"}`,
			`{"performanceReview":"fine","weakAreas":["math"]}`,
			created, ended,
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM QUIZ_SESSION_QUESTIONS WHERE SESSION_ID = :1 ORDER BY POSITION")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(questionColumns).
			AddRow("s1", "q1", 1, "Capital of France?", `["Paris","Rome"]`, "Paris", "Easy", nil, nil, nil).
			AddRow("s1", "q2", 2, "2+2?", `["3","4"]`, "4", nil, "arithmetic", nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM QUIZ_SESSION_ANSWERS WHERE SESSION_ID = :1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(answerColumns).
			AddRow("s1", "q2", "3", ended).
			AddRow("s1", "q1", "Paris", ended))
	mock.ExpectCommit()

	s, err := repo.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, domain.StatusCompleted, s.Status)
	assert.Equal(t, "content-9", s.ContentInputID)
	assert.Equal(t, domain.Configuration{Difficulty: domain.DifficultyNormal, QuestionCount: 2, TimeLimitSeconds: 600}, s.Configuration)
	require.Len(t, s.Questions, 2)
	assert.Equal(t, []string{"Paris", "Rome"}, s.Questions[0].Options)
	assert.Equal(t, "arithmetic", s.Questions[1].Explanation)
	assert.Equal(t, []string{"q1", "q2"}, s.Answers.Keys())
	assert.Equal(t, started, *s.StartTime)
	assert.Equal(t, ended, *s.EndTime)
	assert.Nil(t, s.PausedAt)

	require.NotNil(t, s.Outcome)
	assert.Equal(t, 50, s.Outcome.Score)
	assert.Equal(t, 0, s.Outcome.UnansweredCount)
	assert.Equal(t, 2, s.Outcome.TotalQuestions)

	require.NotNil(t, s.Analysis)
	assert.Equal(t, "fine", s.Analysis.PerformanceReview)
	assert.Equal(t, []string{"math"}, s.Analysis.WeakAreas)
	assert.Equal(t, []string{}, s.Analysis.Suggestions)
	assert.Equal(t, "document", s.Metadata["sourceKind"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDatabaseAdapter_GetByID_NotFound(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	repo := NewSessionDatabaseAdapter(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM QUIZ_SESSIONS WHERE ID = :1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	s, err := repo.GetByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, s)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDatabaseAdapter_GetByID_DriverError(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	repo := NewSessionDatabaseAdapter(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM QUIZ_SESSIONS WHERE ID = :1")).
		WillReturnError(errors.New("ORA-03113: end-of-file on communication channel"))
	mock.ExpectRollback()

	_, err := repo.GetByID(context.Background(), "s1")
	assert.Equal(t, domain.ErrPersistence, domain.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDatabaseAdapter_UpsertAnswer(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	repo := NewSessionDatabaseAdapter(db)
	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("MERGE INTO QUIZ_SESSION_ANSWERS")).
		WithArgs("s1", "q1", "Paris", at, "s1", "q1", "Paris", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertAnswer(context.Background(), "s1", "q1", "Paris", at))

	mock.ExpectExec(regexp.QuoteMeta("MERGE INTO QUIZ_SESSION_ANSWERS")).
		WillReturnError(errors.New("ORA-02291: integrity constraint violated"))

	err := repo.UpsertAnswer(context.Background(), "s1", "q1", "Rome", at)
	assert.Equal(t, domain.ErrPersistence, domain.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDatabaseAdapter_UpdateLifecycle(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	repo := NewSessionDatabaseAdapter(db)

	s := newTestSession()
	started := s.CreatedAt.Add(time.Minute)
	require.NoError(t, s.Start(started))
	s.Answers.Set("q1", "Paris")
	ended := started.Add(time.Minute)
	require.NoError(t, s.Complete(ended))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE QUIZ_SESSIONS SET STATUS = :1")).
		WithArgs("completed", started, ended, nil, nil, 0, 50, 1, 0, ended, s.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLifecycle(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDatabaseAdapter_UpdateLifecycle_NoRows(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	repo := NewSessionDatabaseAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE QUIZ_SESSIONS SET STATUS = :1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateLifecycle(context.Background(), newTestSession())
	assert.Equal(t, domain.ErrNotFound, domain.CodeOf(err))
}

func TestSessionDatabaseAdapter_SaveAnalysis(t *testing.T) {
	db, mock := setupSessionTestDB(t)
	repo := NewSessionDatabaseAdapter(db)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE QUIZ_SESSIONS SET ANALYSIS = :1")).
		WithArgs(sqlmock.AnyArg(), at, "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveAnalysis(context.Background(), "s1", &domain.Analysis{PerformanceReview: "good"}, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
