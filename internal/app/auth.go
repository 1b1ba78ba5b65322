package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/metrics"
)

// Register creates an account and opens a session for it.
func (s *Service) Register(ctx context.Context, username, email, password string) (*domain.User, *domain.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.Create(ctx, username, email, string(hash))
	if err != nil {
		return nil, nil, err
	}

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login verifies credentials and opens a session. Unknown usernames and wrong
// passwords both surface as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.User, *domain.Session, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout destroys a session. Destroying an already expired session succeeds.
func (s *Service) Logout(ctx context.Context, token uuid.UUID) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return err
	}
	metrics.SessionsDestroyed.Inc()
	return nil
}

func (s *Service) openSession(ctx context.Context, userID int64) (*domain.Session, error) {
	session, err := s.sessions.Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	metrics.SessionsCreated.Inc()
	return session, nil
}
