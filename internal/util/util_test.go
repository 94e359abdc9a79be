package util

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewULID(t *testing.T) {
	a, b := NewULID(), NewULID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.True(t, IsULID(a))
	assert.False(t, IsULID("not-a-ulid"))
	assert.Less(t, a, b, "ids created in sequence sort in order")
}

func TestSQLHelpers(t *testing.T) {
	assert.False(t, StringToNullString("").Valid)
	assert.Equal(t, "x", StringToNullString("x").String)

	assert.False(t, TimePtrToNullTime(nil).Valid)
	now := time.Now()
	nt := TimePtrToNullTime(&now)
	assert.True(t, nt.Valid)
	assert.Equal(t, now, *NullTimeToPtr(nt))
	assert.Nil(t, NullTimeToPtr(TimePtrToNullTime(nil)))

	assert.Equal(t, sql.NullInt64{Int64: 3, Valid: true}, IntToNullInt64(3))
}
