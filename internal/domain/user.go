package domain

import (
	"context"
	"time"
)

type User struct {
	ID       int64
	Username string
	Email    string
	// PasswordHash is the bcrypt hash of the account password. It never
	// leaves the server; response views strip it.
	PasswordHash string
	CreatedAt    time.Time
}

type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}
