package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quiz-assessment/internal/cache"
	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// sessionCache is a read-through cache of whole aggregates. Cache
// failures are logged and fall through to the store. A fill holds the
// session's write lock so it cannot store a copy older than the last
// invalidation.
type sessionCache struct {
	cache domain.Cache
	ttl   time.Duration
	locks *sessionLocks
	group singleflight.Group
}

func newSessionCache(c domain.Cache, ttl time.Duration, locks *sessionLocks) *sessionCache {
	return &sessionCache{cache: c, ttl: ttl, locks: locks}
}

type sessionFetcher func(ctx context.Context) (*domain.QuizSession, error)

// load returns a private copy of the session, or nil when the store has none.
func (c *sessionCache) load(ctx context.Context, sessionID string, fetch sessionFetcher) (*domain.QuizSession, error) {
	if c.cache == nil {
		return fetch(ctx)
	}

	key := cache.SessionKey(sessionID)
	if session, ok := c.get(ctx, key); ok {
		return session, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		unlock := c.locks.lock(sessionID)
		defer unlock()

		session, err := fetch(ctx)
		if err != nil || session == nil {
			return session, err
		}
		c.put(ctx, key, session)
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	session, _ := v.(*domain.QuizSession)
	if session == nil {
		return nil, nil
	}
	// singleflight hands the same pointer to every waiter
	return session.Clone(), nil
}

func (c *sessionCache) get(ctx context.Context, key string) (*domain.QuizSession, bool) {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("session cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var session domain.QuizSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		logger.Get().Warn("discarding undecodable cached session", zap.String("key", key), zap.Error(err))
		c.drop(ctx, key)
		return nil, false
	}
	return &session, true
}

func (c *sessionCache) put(ctx context.Context, key string, session *domain.QuizSession) {
	data, err := json.Marshal(session)
	if err != nil {
		logger.Get().Warn("failed to encode session for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
		logger.Get().Warn("session cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate forgets a session after it was written.
func (c *sessionCache) invalidate(ctx context.Context, sessionID string) {
	if c.cache == nil {
		return
	}
	c.drop(ctx, cache.SessionKey(sessionID))
}

func (c *sessionCache) drop(ctx context.Context, key string) {
	if err := c.cache.Delete(ctx, key); err != nil {
		logger.Get().Warn("session cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
