package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriberRepo implements domain.SubscriberRepository backed by
// PostgreSQL.
type SubscriberRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriberRepo(pool *pgxpool.Pool) *SubscriberRepo {
	return &SubscriberRepo{pool: pool}
}

// Subscribe records an email address. Subscribing an address that is
// already on the list is a no-op, not an error.
func (r *SubscriberRepo) Subscribe(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscribers (email)
		VALUES ($1)
		ON CONFLICT (email) DO NOTHING
	`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("failed to subscribe email: %w", err)
	}
	return nil
}
