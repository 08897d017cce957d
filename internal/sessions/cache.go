package sessions

import (
	"context"
	"time"

	"github.com/FalakNet/Account/internal/common"
	"github.com/FalakNet/Account/internal/store"
	"github.com/FalakNet/Account/params"
)

type cachedSession struct {
	SessionID uint      `json:"sessionId"`
	UserID    uint      `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionCache is a read-through cache of active sessions keyed by an HMAC
// of the token value, so raw tokens never reach the cache backend.
type SessionCache struct {
	store  store.Store[cachedSession]
	secret string
}

func NewSessionCache(storage store.Storage, secret string) *SessionCache {
	return &SessionCache{
		store:  store.New[cachedSession](storage, params.SessionCacheKeyPrefix),
		secret: secret,
	}
}

func (c *SessionCache) key(token string) string {
	return common.CalculateHash(c.secret, token)
}

func (c *SessionCache) Get(ctx context.Context, token string) (cachedSession, bool) {
	cached, err := c.store.Get(ctx, c.key(token))
	if err != nil {
		return cachedSession{}, false
	}
	if !cached.ExpiresAt.After(time.Now()) {
		return cachedSession{}, false
	}
	return cached, true
}

func (c *SessionCache) Put(ctx context.Context, token string, sessionID uint, userID uint, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return c.store.Set(ctx, c.key(token), cachedSession{
		SessionID: sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}, ttl)
}

func (c *SessionCache) Drop(ctx context.Context, token string) error {
	return c.store.Delete(ctx, c.key(token))
}
