package voting

import (
	"context"
	"time"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/jonboulle/clockwork"
)

type subjectRef struct {
	kind domain.SubjectKind
	id   int64
}

// MemoryStore is an in-memory Store used by engine tests and local
// experiments. All methods are called from the engine goroutine, so it
// does not lock.
type MemoryStore struct {
	clock    clockwork.Clock
	subjects map[subjectRef]*domain.Subject
	records  map[domain.VoteKey]domain.Direction
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		clock:    clock,
		subjects: make(map[subjectRef]*domain.Subject),
		records:  make(map[domain.VoteKey]domain.Direction),
	}
}

// AddSubject registers a subject with zeroed counters. Existing entries
// are overwritten.
func (s *MemoryStore) AddSubject(kind domain.SubjectKind, subjectID int64, createdAt time.Time) *domain.Subject {
	subj := &domain.Subject{
		Kind:      kind,
		ID:        subjectID,
		CreatedAt: createdAt,
	}
	s.subjects[subjectRef{kind: kind, id: subjectID}] = subj
	return subj
}

func (s *MemoryStore) GetSubject(_ context.Context, kind domain.SubjectKind, subjectID int64) (*domain.Subject, error) {
	subj, ok := s.subjects[subjectRef{kind: kind, id: subjectID}]
	if !ok {
		return nil, domain.NotFoundFor(kind)
	}
	copied := *subj
	return &copied, nil
}

func (s *MemoryStore) ApplyVote(_ context.Context, key domain.VoteKey, t domain.Transition, d domain.Delta) (domain.Score, error) {
	subj, ok := s.subjects[subjectRef{kind: key.Kind, id: key.SubjectID}]
	if !ok {
		return domain.Score{}, domain.NotFoundFor(key.Kind)
	}

	switch key.Kind {
	case domain.KindResource:
		subj.Score.Net += d.Net()
	case domain.KindComment:
		subj.Score.Up += d.Up
		subj.Score.Net = subj.Score.Up
	default:
		subj.Score.Up += d.Up
		subj.Score.Down += d.Down
		subj.Score.Net = subj.Score.Up - subj.Score.Down
	}

	if t.To == domain.DirectionNone {
		delete(s.records, key)
	} else {
		s.records[key] = t.To
	}
	return subj.Score, nil
}

func (s *MemoryStore) LoadLedger(_ context.Context) (map[domain.VoteKey]domain.Direction, error) {
	records := make(map[domain.VoteKey]domain.Direction, len(s.records))
	for key, d := range s.records {
		records[key] = d
	}
	return records, nil
}
