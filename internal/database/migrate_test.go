package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Order(t *testing.T) {
	up, err := Migrations(Up)
	require.NoError(t, err)
	require.Len(t, up, 4)
	assert.Equal(t, uint(1), up[0].Version)
	assert.Equal(t, "create_quiz_sessions", up[0].Identifier)
	assert.Contains(t, up[0].Statement, "CREATE TABLE QUIZ_SESSIONS")
	assert.Contains(t, up[2].Statement, "CREATE TABLE QUIZ_SESSION_ANSWERS")

	down, err := Migrations(Down)
	require.NoError(t, err)
	require.Len(t, down, 4)
	assert.Equal(t, uint(4), down[0].Version)
	assert.Equal(t, "DROP TABLE QUIZ_SESSIONS", down[3].Statement)

	for _, m := range append(up, down...) {
		assert.NotContains(t, m.Statement, ";", m.Identifier)
	}
}

func TestRunMigrations_Up(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE QUIZ_SESSIONS (")).WillReturnResult(sqlmock.NewResult(0, 0))
	// already present
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE QUIZ_SESSION_QUESTIONS (")).
		WillReturnError(errors.New("ORA-00955: name is already used by an existing object"))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE QUIZ_SESSION_ANSWERS (")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IDX_QUIZ_SESSIONS_USER")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, RunMigrations(context.Background(), db, Up))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_Down(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DROP INDEX IDX_QUIZ_SESSIONS_USER")).
		WillReturnError(errors.New("ORA-01418: specified index does not exist"))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE QUIZ_SESSION_ANSWERS")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE QUIZ_SESSION_QUESTIONS")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE QUIZ_SESSIONS")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, RunMigrations(context.Background(), db, Down))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE QUIZ_SESSIONS (")).
		WillReturnError(errors.New("ORA-01031: insufficient privileges"))

	err = RunMigrations(context.Background(), db, Up)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1_create_quiz_sessions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_UnknownDirection(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, RunMigrations(context.Background(), db, Direction("sideways")))
}

func TestNewSQLXOracleDB_UnsupportedDriver(t *testing.T) {
	_, err := NewSQLXOracleDB("postgres", "dsn")
	assert.Error(t, err)
}
