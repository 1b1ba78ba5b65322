package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DirtyReal/cfh-new/internal/domain"
)

// CurrentScene returns the player's scene, opening the story for players
// without saved progress.
func (s *Service) CurrentScene(ctx context.Context, userID int64) (domain.GameScene, error) {
	sceneID, err := s.game.GetScene(ctx, userID)
	if err != nil {
		return domain.GameScene{}, err
	}
	if sceneID == "" {
		sceneID = domain.OpeningSceneID
	}

	scene, err := domain.SceneByID(sceneID)
	if errors.Is(err, domain.ErrSceneNotFound) {
		// The saved scene was written by an older story graph. Restart
		// instead of trapping the player.
		slog.Warn("Saved scene no longer exists, restarting story", "user_id", userID, "scene_id", sceneID)
		return s.RestartGame(ctx, userID)
	}
	return scene, err
}

// Choose advances the story through one of the current scene's choices and
// saves the new position. Advancing from an ending restarts the story.
func (s *Service) Choose(ctx context.Context, userID int64, label string) (domain.GameScene, error) {
	current, err := s.CurrentScene(ctx, userID)
	if err != nil {
		return domain.GameScene{}, err
	}

	if current.Ending() {
		return s.RestartGame(ctx, userID)
	}

	next, err := current.Choose(label)
	if err != nil {
		return domain.GameScene{}, err
	}

	if err := s.game.SetScene(ctx, userID, next.ID); err != nil {
		return domain.GameScene{}, err
	}
	return next, nil
}

// RestartGame puts the player back at the opening scene.
func (s *Service) RestartGame(ctx context.Context, userID int64) (domain.GameScene, error) {
	scene, err := domain.SceneByID(domain.OpeningSceneID)
	if err != nil {
		return domain.GameScene{}, err
	}
	if err := s.game.SetScene(ctx, userID, scene.ID); err != nil {
		return domain.GameScene{}, err
	}
	return scene, nil
}
