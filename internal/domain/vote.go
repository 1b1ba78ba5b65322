package domain

import "time"

// SubjectKind names the entity families that accept votes.
type SubjectKind string

const (
	KindMeme     SubjectKind = "meme"
	KindComment  SubjectKind = "comment"
	KindResource SubjectKind = "resource"
)

// ParseSubjectKind validates an inbound kind string.
func ParseSubjectKind(s string) (SubjectKind, error) {
	switch SubjectKind(s) {
	case KindMeme, KindComment, KindResource:
		return SubjectKind(s), nil
	default:
		return "", ErrInvalidKind
	}
}

// Allows reports whether a direction is legal for the kind.
// Comments accept upvotes only.
func (k SubjectKind) Allows(d Direction) bool {
	if d != DirectionUp && d != DirectionDown {
		return false
	}
	return k != KindComment || d == DirectionUp
}

// Direction is a vote direction. DirectionNone marks the absence of a vote
// and is never a legal cast.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection validates an inbound cast direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionUp, DirectionDown:
		return Direction(s), nil
	default:
		return "", ErrInvalidDirection
	}
}

// Signed maps up to +1, down to -1, and none to 0.
func (d Direction) Signed() int {
	switch d {
	case DirectionUp:
		return 1
	case DirectionDown:
		return -1
	default:
		return 0
	}
}

// VoteKey identifies the single active vote a user may hold on a subject.
type VoteKey struct {
	Kind      SubjectKind
	SubjectID int64
	UserID    int64
}

// Transition describes how a cast changed the caller's active vote:
// none→up is a fresh vote, up→none a toggle-off, up→down a switch.
type Transition struct {
	From Direction `json:"from"`
	To   Direction `json:"to"`
}

// ResolveTransition computes the transition a cast produces over the prior
// vote. Casting the held direction again toggles it off; anything else
// records the cast.
func ResolveTransition(prior, cast Direction) Transition {
	if prior == cast {
		return Transition{From: prior, To: DirectionNone}
	}
	return Transition{From: prior, To: cast}
}

// Delta is the counter adjustment a transition implies. Removing a prior
// direction subtracts one from its counter, entering a new direction adds
// one to its counter.
type Delta struct {
	Up   int
	Down int
}

// Delta converts the transition into a counter adjustment.
func (t Transition) Delta() Delta {
	var d Delta
	switch t.From {
	case DirectionUp:
		d.Up--
	case DirectionDown:
		d.Down--
	}
	switch t.To {
	case DirectionUp:
		d.Up++
	case DirectionDown:
		d.Down++
	}
	return d
}

// Net is the signed effect of the delta, the value applied to
// single-counter subjects. A down→up switch nets +2.
func (d Delta) Net() int {
	return d.Up - d.Down
}

// Score is a subject's displayed tally. Up and Down stay zero for
// resources, which carry only the signed Net counter.
type Score struct {
	Up   int `json:"up"`
	Down int `json:"down"`
	Net  int `json:"net"`
}

// Subject is the vote-relevant projection of a votable entity.
type Subject struct {
	Kind      SubjectKind
	ID        int64
	Score     Score
	CreatedAt time.Time
}

// VoteResult is the outcome of one cast: the transition that happened, the
// subject's tally after it, and the caller's vote state going forward.
// Broadcast fan-out uses only the subject and tally; the caller-specific
// fields stay between the engine and the HTTP response.
type VoteResult struct {
	Kind       SubjectKind `json:"kind"`
	SubjectID  int64       `json:"subject_id"`
	Transition Transition  `json:"transition"`
	Score      Score       `json:"score"`
	UserVote   Direction   `json:"user_vote"`
}
