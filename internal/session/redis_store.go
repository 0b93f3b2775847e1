package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alokkksharmaa/EduSphere/internal/models"
	"github.com/alokkksharmaa/EduSphere/internal/security"
)

const (
	fieldUserID     = "user_id"
	fieldUsername   = "username"
	fieldRole       = "role"
	fieldCSRFSecret = "csrf_secret"
	fieldCreatedAt  = "created_at"
)

// setSecretScript returns nil when the session hash is gone so a secret is
// never written into a key without a TTL.
var setSecretScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
redis.call('HSETNX', KEYS[1], 'csrf_secret', ARGV[1])
return redis.call('HGET', KEYS[1], 'csrf_secret')
`)

// RedisStore keeps each session in a hash with a sliding expiry.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// New allocates an unsaved anonymous session with a fresh id.
func (s *RedisStore) New() (*Session, error) {
	id, err := security.RandomHex(security.SessionIDBytes)
	if err != nil {
		return nil, fmt.Errorf("new session id: %w", err)
	}
	return &Session{ID: id, CreatedAt: s.now().UTC()}, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	if !security.IsHexToken(id, security.SessionIDBytes) {
		return nil, ErrInvalidID
	}

	key := s.key(id)
	var fields *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, key)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	values := fields.Val()
	if len(values) == 0 {
		return nil, ErrSessionNotFound
	}

	sess := &Session{
		ID:         id,
		Username:   values[fieldUsername],
		Role:       models.UserRole(values[fieldRole]),
		CSRFSecret: values[fieldCSRFSecret],
	}
	if raw := values[fieldUserID]; raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode session user: %w", err)
		}
		sess.UserID = userID
	}
	if raw := values[fieldCreatedAt]; raw != "" {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
			sess.CreatedAt = time.Unix(unix, 0).UTC()
		}
	}
	return sess, nil
}

// Save writes every field and resets the expiry. An empty CSRFSecret leaves
// a stored secret in place.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil || !security.IsHexToken(sess.ID, security.SessionIDBytes) {
		return ErrInvalidID
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now().UTC()
	}

	values := map[string]any{
		fieldUserID:    strconv.FormatInt(sess.UserID, 10),
		fieldUsername:  sess.Username,
		fieldRole:      string(sess.Role),
		fieldCreatedAt: strconv.FormatInt(sess.CreatedAt.Unix(), 10),
	}
	if sess.CSRFSecret != "" {
		values[fieldCSRFSecret] = sess.CSRFSecret
	}

	key := s.key(sess.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if !security.IsHexToken(id, security.SessionIDBytes) {
		return ErrInvalidID
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (s *RedisStore) SetCSRFSecretIfAbsent(ctx context.Context, id, candidate string) (string, error) {
	if !security.IsHexToken(id, security.SessionIDBytes) {
		return "", ErrInvalidID
	}
	secret, err := setSecretScript.Run(ctx, s.client, []string{s.key(id)}, candidate).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("set csrf secret: %w", err)
	}
	return secret, nil
}
