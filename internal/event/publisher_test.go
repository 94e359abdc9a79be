package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"quiz-assessment/internal/domain"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []publishedMessage
	err       error
	closed    bool
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedMessage{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newAMQPPublisherWithChannel(ch, "quiz.sessions")

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	evt := domain.SessionEvent{
		Type:       domain.EventSessionCompleted,
		SessionID:  "s1",
		UserID:     "u1",
		Status:     domain.StatusCompleted,
		Outcome:    &domain.Outcome{Score: 50, CorrectCount: 1, IncorrectCount: 1, TotalQuestions: 2},
		OccurredAt: at,
	}
	require.NoError(t, p.Publish(context.Background(), evt))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "quiz.sessions", got.exchange)
	assert.Equal(t, "session.completed", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, at, got.msg.Timestamp)
	_, err := uuid.Parse(got.msg.MessageId)
	assert.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "s1", body["sessionId"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, float64(50), body["outcome"].(map[string]any)["score"])

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	p := newAMQPPublisherWithChannel(ch, "quiz.sessions")
	err := p.Publish(context.Background(), domain.SessionEvent{Type: domain.EventSessionStarted})
	assert.True(t, errors.Is(err, amqp.ErrClosed))
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher()
	assert.NoError(t, p.Publish(context.Background(), domain.SessionEvent{Type: domain.EventSessionCreated, SessionID: "s1"}))
	assert.NoError(t, p.Close())
}
