package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/voting"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VoteStore persists vote records and counter updates for the vote engine.
// Each ApplyVote writes both in one transaction, so the stored counters can
// never drift from the stored vote records.
type VoteStore struct {
	pool *pgxpool.Pool
}

var _ voting.Store = (*VoteStore)(nil)

func NewVoteStore(pool *pgxpool.Pool) *VoteStore {
	return &VoteStore{pool: pool}
}

func (s *VoteStore) GetSubject(ctx context.Context, kind domain.SubjectKind, subjectID int64) (*domain.Subject, error) {
	subj := domain.Subject{Kind: kind, ID: subjectID}
	var err error

	switch kind {
	case domain.KindMeme:
		err = s.pool.QueryRow(ctx,
			`SELECT upvotes, downvotes, created_at FROM memes WHERE id = $1`, subjectID).
			Scan(&subj.Score.Up, &subj.Score.Down, &subj.CreatedAt)
		subj.Score.Net = subj.Score.Up - subj.Score.Down
	case domain.KindComment:
		err = s.pool.QueryRow(ctx,
			`SELECT upvotes, created_at FROM comments WHERE id = $1`, subjectID).
			Scan(&subj.Score.Up, &subj.CreatedAt)
		subj.Score.Net = subj.Score.Up
	case domain.KindResource:
		err = s.pool.QueryRow(ctx,
			`SELECT votes, created_at FROM resources WHERE id = $1`, subjectID).
			Scan(&subj.Score.Net, &subj.CreatedAt)
	default:
		return nil, domain.ErrInvalidKind
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundFor(kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", kind, subjectID, err)
	}
	return &subj, nil
}

func (s *VoteStore) ApplyVote(ctx context.Context, key domain.VoteKey, t domain.Transition, d domain.Delta) (domain.Score, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Score{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := s.writeRecord(ctx, tx, key, t); err != nil {
		return domain.Score{}, err
	}

	score, err := s.applyDelta(ctx, tx, key, d)
	if err != nil {
		return domain.Score{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Score{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return score, nil
}

func (s *VoteStore) writeRecord(ctx context.Context, tx pgx.Tx, key domain.VoteKey, t domain.Transition) error {
	if t.To == domain.DirectionNone {
		_, err := tx.Exec(ctx, `
			DELETE FROM vote_records
			WHERE kind = $1 AND subject_id = $2 AND user_id = $3
		`, string(key.Kind), key.SubjectID, key.UserID)
		if err != nil {
			return fmt.Errorf("failed to delete vote record: %w", err)
		}
		return nil
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO vote_records (kind, subject_id, user_id, direction)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, subject_id, user_id) DO UPDATE SET
			direction = EXCLUDED.direction,
			updated_at = NOW()
	`, string(key.Kind), key.SubjectID, key.UserID, string(t.To))
	if err != nil {
		return fmt.Errorf("failed to upsert vote record: %w", err)
	}
	return nil
}

func (s *VoteStore) applyDelta(ctx context.Context, tx pgx.Tx, key domain.VoteKey, d domain.Delta) (domain.Score, error) {
	var score domain.Score
	var err error

	switch key.Kind {
	case domain.KindMeme:
		err = tx.QueryRow(ctx, `
			UPDATE memes SET upvotes = upvotes + $1, downvotes = downvotes + $2
			WHERE id = $3
			RETURNING upvotes, downvotes
		`, d.Up, d.Down, key.SubjectID).Scan(&score.Up, &score.Down)
		score.Net = score.Up - score.Down
	case domain.KindComment:
		err = tx.QueryRow(ctx, `
			UPDATE comments SET upvotes = upvotes + $1
			WHERE id = $2
			RETURNING upvotes
		`, d.Up, key.SubjectID).Scan(&score.Up)
		score.Net = score.Up
	case domain.KindResource:
		err = tx.QueryRow(ctx, `
			UPDATE resources SET votes = votes + $1
			WHERE id = $2
			RETURNING votes
		`, d.Net(), key.SubjectID).Scan(&score.Net)
	default:
		return domain.Score{}, domain.ErrInvalidKind
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Score{}, domain.NotFoundFor(key.Kind)
	}
	if err != nil {
		return domain.Score{}, fmt.Errorf("failed to update %s counters: %w", key.Kind, err)
	}
	return score, nil
}

// LoadLedger reads every persisted vote record for engine warm start.
func (s *VoteStore) LoadLedger(ctx context.Context) (map[domain.VoteKey]domain.Direction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT kind, subject_id, user_id, direction FROM vote_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to load vote records: %w", err)
	}
	defer rows.Close()

	records := make(map[domain.VoteKey]domain.Direction)
	for rows.Next() {
		var rawKind, rawDirection string
		var key domain.VoteKey
		if err := rows.Scan(&rawKind, &key.SubjectID, &key.UserID, &rawDirection); err != nil {
			return nil, fmt.Errorf("failed to scan vote record: %w", err)
		}

		key.Kind, err = domain.ParseSubjectKind(rawKind)
		if err != nil {
			return nil, fmt.Errorf("corrupt vote record kind %q: %w", rawKind, err)
		}
		direction, err := domain.ParseDirection(rawDirection)
		if err != nil {
			return nil, fmt.Errorf("corrupt vote record direction %q: %w", rawDirection, err)
		}
		records[key] = direction
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vote records: %w", err)
	}
	return records, nil
}
