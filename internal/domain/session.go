package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is a server-side login session. The browser holds only the token,
// inside a signed cookie.
type Session struct {
	Token      uuid.UUID
	UserID     int64
	CreatedAt  time.Time
	LastSeenAt time.Time
}

type SessionRepository interface {
	Create(ctx context.Context, userID int64) (*Session, error)
	// Get returns the session and slides its expiry forward.
	Get(ctx context.Context, token uuid.UUID) (*Session, error)
	Delete(ctx context.Context, token uuid.UUID) error
}
