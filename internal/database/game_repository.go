package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameProgressRepo implements domain.GameProgressRepository backed by
// PostgreSQL. Progress is one scene pointer per user.
type GameProgressRepo struct {
	pool *pgxpool.Pool
}

func NewGameProgressRepo(pool *pgxpool.Pool) *GameProgressRepo {
	return &GameProgressRepo{pool: pool}
}

// GetScene returns the user's saved scene ID, or "" when the user has not
// started the game.
func (r *GameProgressRepo) GetScene(ctx context.Context, userID int64) (string, error) {
	var sceneID string
	err := r.pool.QueryRow(ctx,
		`SELECT scene_id FROM game_progress WHERE user_id = $1`, userID).Scan(&sceneID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get game progress: %w", err)
	}
	return sceneID, nil
}

func (r *GameProgressRepo) SetScene(ctx context.Context, userID int64, sceneID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO game_progress (user_id, scene_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET scene_id = EXCLUDED.scene_id, updated_at = NOW()
	`, userID, sceneID)
	if err != nil {
		return fmt.Errorf("failed to set game progress: %w", err)
	}
	return nil
}
