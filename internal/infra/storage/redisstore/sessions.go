package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"erent/internal/domain/auth"
	"erent/internal/domain/user"
)

const defaultPrefix = "erent:"

// SessionStore keeps bearer sessions in Redis. Each session expires with its
// token and a per-user set indexes them for bulk revocation.
type SessionStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

// Connect builds a client and checks the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

type sessionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *SessionStore) sessionKey(id auth.SessionID) string {
	return s.prefix + "session:" + string(id)
}

func (s *SessionStore) userKey(id user.ID) string {
	return s.prefix + "user-sessions:" + string(id)
}

func (s *SessionStore) Save(ctx context.Context, session *auth.Session) error {
	if session == nil {
		return auth.ErrTokenRequired
	}
	ttl := session.TTL(s.now())
	if ttl <= 0 {
		return auth.ErrSessionExpired
	}
	rec := sessionRecord{
		ID:        string(session.ID),
		UserID:    string(session.UserID),
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
	for _, r := range session.Roles {
		rec.Roles = append(rec.Roles, string(r))
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(session.ID), payload, ttl)
	pipe.SAdd(ctx, s.userKey(session.UserID), string(session.ID))
	pipe.Expire(ctx, s.userKey(session.UserID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) Get(ctx context.Context, id auth.SessionID) (*auth.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	session := &auth.Session{
		ID:        auth.SessionID(rec.ID),
		UserID:    user.ID(rec.UserID),
		CreatedAt: rec.CreatedAt.UTC(),
		ExpiresAt: rec.ExpiresAt.UTC(),
	}
	for _, r := range rec.Roles {
		session.Roles = append(session.Roles, user.Role(r))
	}
	if session.Expired(s.now()) {
		_ = s.Delete(ctx, id)
		return nil, auth.ErrSessionExpired
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id auth.SessionID) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrSessionExpired) {
			return s.client.Del(ctx, s.sessionKey(id)).Err()
		}
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(id))
	pipe.SRem(ctx, s.userKey(session.UserID), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID user.ID) error {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.sessionKey(auth.SessionID(id)))
	}
	keys = append(keys, s.userKey(userID))
	return s.client.Del(ctx, keys...).Err()
}

var _ auth.SessionStore = (*SessionStore)(nil)
