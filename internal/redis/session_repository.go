package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// sessionTTL is the sliding expiry: every successful lookup pushes
	// the session out another window.
	sessionTTL = 7 * 24 * time.Hour

	// Redis hash field names for session keys.
	fieldUserID     = "user_id"
	fieldCreatedAt  = "created_at"
	fieldLastSeenAt = "last_seen_at"
)

// SessionRepo implements domain.SessionRepository on Redis hashes. The
// browser cookie carries only the opaque token; everything else lives here.
type SessionRepo struct {
	rdb   *goredis.Client
	clock clockwork.Clock
}

func NewSessionRepo(rdb *goredis.Client, clock clockwork.Clock) *SessionRepo {
	return &SessionRepo{rdb: rdb, clock: clock}
}

// Create stores a fresh session for userID and returns it with a newly
// generated token.
func (s *SessionRepo) Create(ctx context.Context, userID int64) (*domain.Session, error) {
	now := s.clock.Now()
	session := &domain.Session{
		Token:      uuid.New(),
		UserID:     userID,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	sk := sessionKey(session.Token)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, sk, map[string]any{
		fieldUserID:     strconv.FormatInt(userID, 10),
		fieldCreatedAt:  strconv.FormatInt(now.UnixMilli(), 10),
		fieldLastSeenAt: strconv.FormatInt(now.UnixMilli(), 10),
	})
	pipe.Expire(ctx, sk, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return session, nil
}

// Get resolves a token to its session and slides the expiry window. An
// unknown or expired token yields domain.ErrSessionNotFound.
func (s *SessionRepo) Get(ctx context.Context, token uuid.UUID) (*domain.Session, error) {
	sk := sessionKey(token)

	fields, err := s.rdb.HGetAll(ctx, sk).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	session, err := parseSession(token, fields)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, sk, fieldLastSeenAt, strconv.FormatInt(now.UnixMilli(), 10))
	pipe.Expire(ctx, sk, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	session.LastSeenAt = now

	return session, nil
}

// Delete removes a session. Deleting a token that no longer exists is not
// an error, so logout stays idempotent.
func (s *SessionRepo) Delete(ctx context.Context, token uuid.UUID) error {
	if err := s.rdb.Del(ctx, sessionKey(token)).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func parseSession(token uuid.UUID, fields map[string]string) (*domain.Session, error) {
	userID, err := strconv.ParseInt(fields[fieldUserID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session user_id %q: %w", fields[fieldUserID], err)
	}
	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session created_at %q: %w", fields[fieldCreatedAt], err)
	}
	lastSeenAt, err := strconv.ParseInt(fields[fieldLastSeenAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session last_seen_at %q: %w", fields[fieldLastSeenAt], err)
	}

	return &domain.Session{
		Token:      token,
		UserID:     userID,
		CreatedAt:  time.UnixMilli(createdAt),
		LastSeenAt: time.UnixMilli(lastSeenAt),
	}, nil
}

func sessionKey(token uuid.UUID) string {
	return "session:" + token.String()
}
