package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StringSlice stores a string list as a JSON array in a CLOB column.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		// nil 슬라이스는 "[]"로 저장
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	raw, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("StringSlice Scan: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(raw, s)
}

// JSONDocument stores any JSON-serialisable value in a nullable CLOB column.
// A nil Data is written as NULL.
type JSONDocument struct {
	Data  any
	Valid bool
}

// NewJSONDocument returns an invalid (NULL) document when data is nil.
func NewJSONDocument(data any) JSONDocument {
	return JSONDocument{Data: data, Valid: data != nil}
}

func (d JSONDocument) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	b, err := json.Marshal(d.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan keeps the raw JSON text; Decode unmarshals it into a typed target.
func (d *JSONDocument) Scan(value interface{}) error {
	raw, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("JSONDocument Scan: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*d = JSONDocument{}
		return nil
	}
	*d = JSONDocument{Data: json.RawMessage(append([]byte(nil), raw...)), Valid: true}
	return nil
}

// Decode unmarshals a scanned document into target. It reports false for NULL.
func (d JSONDocument) Decode(target any) (bool, error) {
	if !d.Valid {
		return false, nil
	}
	raw, ok := d.Data.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(d.Data)
		if err != nil {
			return false, err
		}
		raw = b
	}
	return true, json.Unmarshal(raw, target)
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("unsupported type " + fmt.Sprintf("%T", value))
	}
}

// QuizSession 테이블 QUIZ_SESSIONS
type QuizSession struct {
	ID               string         `db:"ID"`
	UserID           string         `db:"USER_ID"`
	ContentInputID   sql.NullString `db:"CONTENT_INPUT_ID"`
	Name             sql.NullString `db:"NAME"`
	Difficulty       string         `db:"DIFFICULTY"`
	QuestionCount    int            `db:"QUESTION_COUNT"`
	TimeLimitSeconds int            `db:"TIME_LIMIT_SECONDS"`
	Status           string         `db:"STATUS"`
	StartTime        sql.NullTime   `db:"START_TIME"`
	EndTime          sql.NullTime   `db:"END_TIME"`
	PauseReason      sql.NullString `db:"PAUSE_REASON"`
	PausedAt         sql.NullTime   `db:"PAUSED_AT"`
	PauseCount       int            `db:"PAUSE_COUNT"`
	Score            sql.NullInt64  `db:"SCORE"`
	CorrectCount     sql.NullInt64  `db:"CORRECT_COUNT"`
	IncorrectCount   sql.NullInt64  `db:"INCORRECT_COUNT"`
	Metadata         JSONDocument   `db:"METADATA"`
	Analysis         JSONDocument   `db:"ANALYSIS"`
	CreatedAt        time.Time      `db:"CREATED_AT"`
	UpdatedAt        time.Time      `db:"UPDATED_AT"`
}

// QuizSessionQuestion 테이블 QUIZ_SESSION_QUESTIONS
type QuizSessionQuestion struct {
	SessionID      string         `db:"SESSION_ID"`
	QuestionID     string         `db:"QUESTION_ID"`
	Position       int            `db:"POSITION"`
	Text           sql.NullString `db:"TEXT"`
	Options        StringSlice    `db:"OPTIONS"`
	CorrectAnswer  string         `db:"CORRECT_ANSWER"`
	Difficulty     sql.NullString `db:"DIFFICULTY"`
	Explanation    sql.NullString `db:"EXPLANATION"`
	CodeSnippet    sql.NullString `db:"CODE_SNIPPET"`
	ImageReference sql.NullString `db:"IMAGE_REFERENCE"`
}

// QuizSessionAnswer 테이블 QUIZ_SESSION_ANSWERS
type QuizSessionAnswer struct {
	SessionID  string    `db:"SESSION_ID"`
	QuestionID string    `db:"QUESTION_ID"`
	Answer     string    `db:"ANSWER"`
	AnsweredAt time.Time `db:"ANSWERED_AT"`
}
