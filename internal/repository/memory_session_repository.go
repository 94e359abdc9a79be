package repository

import (
	"context"
	"sync"
	"time"

	"quiz-assessment/internal/domain"
)

// MemorySessionRepository keeps sessions in process memory. It backs the
// "memory" driver and service tests. Every read and write copies the
// aggregate so callers never share state with the store.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.QuizSession
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]*domain.QuizSession)}
}

var (
	_ domain.SessionRepository  = (*MemorySessionRepository)(nil)
	_ domain.TransactionManager = (*MemorySessionRepository)(nil)
)

type memoryJournalKey struct{}

// memoryJournal remembers the pre-transaction copy of every session touched.
type memoryJournal struct {
	original map[string]*domain.QuizSession
}

// WithTransaction undoes every write fn made if fn fails.
func (r *MemorySessionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memoryJournalKey{}).(*memoryJournal); ok {
		return fn(ctx)
	}

	journal := &memoryJournal{original: make(map[string]*domain.QuizSession)}
	if err := fn(context.WithValue(ctx, memoryJournalKey{}, journal)); err != nil {
		r.mu.Lock()
		for id, s := range journal.original {
			if s == nil {
				delete(r.sessions, id)
			} else {
				r.sessions[id] = s
			}
		}
		r.mu.Unlock()
		return err
	}
	return nil
}

// record must be called with r.mu held.
func (r *MemorySessionRepository) record(ctx context.Context, id string) {
	journal, ok := ctx.Value(memoryJournalKey{}).(*memoryJournal)
	if !ok {
		return
	}
	if _, seen := journal.original[id]; seen {
		return
	}
	if s, exists := r.sessions[id]; exists {
		journal.original[id] = s.Clone()
	} else {
		journal.original[id] = nil
	}
}

func (r *MemorySessionRepository) Create(ctx context.Context, session *domain.QuizSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return domain.NewPersistenceError("quiz session already exists", nil).WithContext("sessionId", session.ID)
	}
	r.record(ctx, session.ID)
	r.sessions[session.ID] = session.Clone()
	return nil
}

func (r *MemorySessionRepository) GetByID(_ context.Context, id string) (*domain.QuizSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (r *MemorySessionRepository) UpsertAnswer(ctx context.Context, sessionID, questionID, answer string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return domain.NewSessionNotFoundError(sessionID)
	}
	r.record(ctx, sessionID)
	updated := s.Clone()
	updated.Answers.Set(questionID, answer)
	updated.UpdatedAt = at
	r.sessions[sessionID] = updated
	return nil
}

func (r *MemorySessionRepository) UpdateLifecycle(ctx context.Context, session *domain.QuizSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[session.ID]
	if !ok {
		return domain.NewSessionNotFoundError(session.ID)
	}
	r.record(ctx, session.ID)

	src := session.Clone()
	updated := s.Clone()
	updated.Status = src.Status
	updated.StartTime = src.StartTime
	updated.EndTime = src.EndTime
	updated.PauseReason = src.PauseReason
	updated.PausedAt = src.PausedAt
	updated.PauseCount = src.PauseCount
	updated.Outcome = src.Outcome
	updated.UpdatedAt = src.UpdatedAt
	r.sessions[session.ID] = updated
	return nil
}

func (r *MemorySessionRepository) SaveAnalysis(ctx context.Context, sessionID string, analysis *domain.Analysis, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return domain.NewSessionNotFoundError(sessionID)
	}
	r.record(ctx, sessionID)
	updated := s.Clone()
	updated.Analysis = analysis
	updated.UpdatedAt = at
	r.sessions[sessionID] = updated.Clone()
	return nil
}
