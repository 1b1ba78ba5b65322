package voting

import (
	"github.com/DirtyReal/cfh-new/internal/domain"
)

// Ledger tracks the current vote of every user on every subject. It is a
// plain map owned by the engine goroutine and does no locking or I/O.
type Ledger struct {
	records map[domain.VoteKey]domain.Direction
}

func NewLedger() *Ledger {
	return &Ledger{
		records: make(map[domain.VoteKey]domain.Direction),
	}
}

// Get returns the active vote for key, or DirectionNone when there is none.
func (l *Ledger) Get(key domain.VoteKey) domain.Direction {
	if d, ok := l.records[key]; ok {
		return d
	}
	return domain.DirectionNone
}

// Resolve computes the transition that casting cast would produce for key.
// It does not modify the ledger, so callers can persist the transition
// first and commit it only after the write succeeds.
func (l *Ledger) Resolve(key domain.VoteKey, cast domain.Direction) domain.Transition {
	return domain.ResolveTransition(l.Get(key), cast)
}

// Commit records the outcome of a transition. A transition ending in
// DirectionNone removes the record entirely.
func (l *Ledger) Commit(key domain.VoteKey, t domain.Transition) {
	if t.To == domain.DirectionNone {
		delete(l.records, key)
		return
	}
	l.records[key] = t.To
}

// Restore replaces the ledger contents with persisted records, used to
// warm the engine from storage at startup.
func (l *Ledger) Restore(records map[domain.VoteKey]domain.Direction) {
	l.records = make(map[domain.VoteKey]domain.Direction, len(records))
	for key, d := range records {
		if d == domain.DirectionNone {
			continue
		}
		l.records[key] = d
	}
}

// Len returns the number of active vote records.
func (l *Ledger) Len() int {
	return len(l.records)
}
