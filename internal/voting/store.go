package voting

import (
	"context"

	"github.com/DirtyReal/cfh-new/internal/domain"
)

// Store is the persistence surface the engine needs: subject lookups,
// the combined vote-record-plus-counter write, and the warm-start load.
type Store interface {
	// GetSubject returns the subject's current tally and creation time,
	// or the kind's not-found error when it does not exist.
	GetSubject(ctx context.Context, kind domain.SubjectKind, subjectID int64) (*domain.Subject, error)

	// ApplyVote persists the vote record change and its counter delta as
	// a single unit and returns the subject's tally after the write.
	ApplyVote(ctx context.Context, key domain.VoteKey, t domain.Transition, d domain.Delta) (domain.Score, error)

	// LoadLedger returns every active vote record.
	LoadLedger(ctx context.Context) (map[domain.VoteKey]domain.Direction, error)
}

// Broadcaster receives successful vote results for fan-out to connected
// clients. Implementations must not block the caller.
type Broadcaster interface {
	BroadcastVote(result domain.VoteResult)
}
