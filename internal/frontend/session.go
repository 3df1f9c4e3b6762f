package frontend

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
)

const sessionCookieName = "tp_session"

// ErrNoSession means the request carries no valid session.
var ErrNoSession = errors.New("no active session")

// SessionStore holds the bearer token server-side, keyed by an opaque
// session id. The browser only ever sees the id.
type SessionStore interface {
	Create(ctx context.Context, token string, ttl time.Duration) (string, error)
	Get(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps sessions in Redis with a TTL matching the token's
// lifetime.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore constructs the store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Create stores the token under a fresh id.
func (s *RedisSessionStore) Create(ctx context.Context, token string, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(id), token, ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the token for id, or ErrNoSession when absent or expired.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (string, error) {
	token, err := s.client.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// SessionManager pairs the server-side store with the signed cookie that
// carries the session id. The cookie is tamper-evident via securecookie;
// the value inside is just the uuid.
type SessionManager struct {
	store SessionStore
	codec *securecookie.SecureCookie
	ttl   time.Duration
}

// NewSessionManager constructs a manager. hashKey signs cookies; rotating
// it invalidates every outstanding session cookie.
func NewSessionManager(store SessionStore, hashKey []byte, ttl time.Duration) *SessionManager {
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(int(ttl.Seconds()))
	return &SessionManager{store: store, codec: codec, ttl: ttl}
}

// Begin stores token and sets the session cookie on the response.
func (m *SessionManager) Begin(c *fiber.Ctx, token string) error {
	id, err := m.store.Create(c.UserContext(), token, m.ttl)
	if err != nil {
		return err
	}
	encoded, err := m.codec.Encode(sessionCookieName, id)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

// Token resolves the request's session cookie to the stored bearer token.
func (m *SessionManager) Token(c *fiber.Ctx) (string, error) {
	raw := c.Cookies(sessionCookieName)
	if raw == "" {
		return "", ErrNoSession
	}
	var id string
	if err := m.codec.Decode(sessionCookieName, raw, &id); err != nil {
		return "", ErrNoSession
	}
	return m.store.Get(c.UserContext(), id)
}

// End deletes the session and clears the cookie.
func (m *SessionManager) End(c *fiber.Ctx) error {
	raw := c.Cookies(sessionCookieName)
	if raw != "" {
		var id string
		if err := m.codec.Decode(sessionCookieName, raw, &id); err == nil {
			if err := m.store.Delete(c.UserContext(), id); err != nil {
				return err
			}
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}
