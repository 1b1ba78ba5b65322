package voting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/metrics"
	"github.com/jonboulle/clockwork"
)

const (
	// cmdBufferSize bounds how many commands may queue before callers block.
	cmdBufferSize = 256

	// depthInterval is how often the queue depth gauge is sampled.
	depthInterval = 5 * time.Second
)

// engineCmd is a marker interface for commands processed by the engine loop.
type engineCmd interface {
	engineCmd()
}

type cmdCastVote struct {
	key     domain.VoteKey
	cast    domain.Direction
	replyCh chan castVoteReply
}

func (cmdCastVote) engineCmd() {}

type castVoteReply struct {
	result domain.VoteResult
	err    error
}

type cmdUserVote struct {
	key     domain.VoteKey
	replyCh chan domain.Direction
}

func (cmdUserVote) engineCmd() {}

type cmdUserVotes struct {
	kind    domain.SubjectKind
	ids     []int64
	userID  int64
	replyCh chan map[int64]domain.Direction
}

func (cmdUserVotes) engineCmd() {}

type cmdStop struct {
	doneCh chan struct{}
}

func (cmdStop) engineCmd() {}

// Engine serializes all vote mutations through a single goroutine. It owns
// the ledger outright; no other goroutine touches it.
type Engine struct {
	cmdCh       chan engineCmd
	ledger      *Ledger
	store       Store
	broadcaster Broadcaster
	clock       clockwork.Clock
	stopCh      chan struct{}
}

// NewEngine creates an engine over the given store. broadcaster may be nil,
// in which case results are not fanned out.
func NewEngine(store Store, broadcaster Broadcaster, clock clockwork.Clock) *Engine {
	return &Engine{
		cmdCh:       make(chan engineCmd, cmdBufferSize),
		ledger:      NewLedger(),
		store:       store,
		broadcaster: broadcaster,
		clock:       clock,
		stopCh:      make(chan struct{}),
	}
}

// Warm fills the ledger from persisted vote records. Call before Start.
func (e *Engine) Warm(ctx context.Context) error {
	records, err := e.store.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("loading vote records: %w", err)
	}
	e.ledger.Restore(records)
	slog.Info("Vote ledger warmed", "records", e.ledger.Len())
	return nil
}

// Start launches the command loop and the queue depth monitor.
func (e *Engine) Start() {
	go e.monitorLoop()
	go e.run()
}

// Stop enqueues a stop command and waits until the loop has processed
// everything queued before it.
func (e *Engine) Stop() {
	doneCh := make(chan struct{})
	e.cmdCh <- cmdStop{doneCh: doneCh}
	<-doneCh
}

// CastVote applies a vote through the engine and returns the resulting
// transition and tally. Casting the active direction again retracts it;
// casting the opposite direction switches it.
func (e *Engine) CastVote(ctx context.Context, kind domain.SubjectKind, subjectID, userID int64, cast domain.Direction) (domain.VoteResult, error) {
	cmd := cmdCastVote{
		key:     domain.VoteKey{Kind: kind, SubjectID: subjectID, UserID: userID},
		cast:    cast,
		replyCh: make(chan castVoteReply, 1),
	}

	select {
	case e.cmdCh <- cmd:
	case <-ctx.Done():
		return domain.VoteResult{}, ctx.Err()
	}

	select {
	case reply := <-cmd.replyCh:
		return reply.result, reply.err
	case <-ctx.Done():
		return domain.VoteResult{}, ctx.Err()
	}
}

// UserVote returns the user's active vote on one subject.
func (e *Engine) UserVote(ctx context.Context, kind domain.SubjectKind, subjectID, userID int64) (domain.Direction, error) {
	cmd := cmdUserVote{
		key:     domain.VoteKey{Kind: kind, SubjectID: subjectID, UserID: userID},
		replyCh: make(chan domain.Direction, 1),
	}

	select {
	case e.cmdCh <- cmd:
	case <-ctx.Done():
		return domain.DirectionNone, ctx.Err()
	}

	select {
	case d := <-cmd.replyCh:
		return d, nil
	case <-ctx.Done():
		return domain.DirectionNone, ctx.Err()
	}
}

// UserVotes returns the user's active votes for a batch of subjects of one
// kind. Subjects without a vote are omitted from the map.
func (e *Engine) UserVotes(ctx context.Context, kind domain.SubjectKind, ids []int64, userID int64) (map[int64]domain.Direction, error) {
	cmd := cmdUserVotes{
		kind:    kind,
		ids:     ids,
		userID:  userID,
		replyCh: make(chan map[int64]domain.Direction, 1),
	}

	select {
	case e.cmdCh <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case votes := <-cmd.replyCh:
		return votes, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run is the engine's actor loop. It processes commands one at a time.
func (e *Engine) run() {
	ctx := context.Background()

	for cmd := range e.cmdCh {
		switch c := cmd.(type) {
		case cmdCastVote:
			c.replyCh <- e.handleCastVote(ctx, c)

		case cmdUserVote:
			c.replyCh <- e.ledger.Get(c.key)

		case cmdUserVotes:
			c.replyCh <- e.handleUserVotes(c)

		case cmdStop:
			close(e.stopCh)
			close(c.doneCh)
			return
		}
	}
}

// handleCastVote validates, persists, and commits one vote. The ledger is
// only committed after the store write succeeds, so tallies and ledger
// cannot diverge.
func (e *Engine) handleCastVote(ctx context.Context, c cmdCastVote) castVoteReply {
	if !c.key.Kind.Allows(c.cast) {
		metrics.VoteFailuresTotal.WithLabelValues("invalid_direction").Inc()
		return castVoteReply{err: fmt.Errorf("%s votes: %w", c.key.Kind, domain.ErrInvalidDirection)}
	}

	if _, err := e.store.GetSubject(ctx, c.key.Kind, c.key.SubjectID); err != nil {
		metrics.VoteFailuresTotal.WithLabelValues("subject_missing").Inc()
		return castVoteReply{err: err}
	}

	transition := e.ledger.Resolve(c.key, c.cast)
	score, err := e.store.ApplyVote(ctx, c.key, transition, transition.Delta())
	if err != nil {
		metrics.VoteFailuresTotal.WithLabelValues("store_error").Inc()
		slog.Error("Vote write failed, ledger unchanged",
			"kind", c.key.Kind,
			"subject_id", c.key.SubjectID,
			"error", err)
		return castVoteReply{err: fmt.Errorf("persisting vote: %w", err)}
	}
	e.ledger.Commit(c.key, transition)

	metrics.VotesTotal.WithLabelValues(string(c.key.Kind), transitionLabel(transition)).Inc()

	result := domain.VoteResult{
		Kind:       c.key.Kind,
		SubjectID:  c.key.SubjectID,
		Transition: transition,
		Score:      score,
		UserVote:   transition.To,
	}
	if e.broadcaster != nil {
		e.broadcaster.BroadcastVote(result)
	}
	return castVoteReply{result: result}
}

func (e *Engine) handleUserVotes(c cmdUserVotes) map[int64]domain.Direction {
	votes := make(map[int64]domain.Direction)
	for _, id := range c.ids {
		key := domain.VoteKey{Kind: c.kind, SubjectID: id, UserID: c.userID}
		if d := e.ledger.Get(key); d != domain.DirectionNone {
			votes[id] = d
		}
	}
	return votes
}

// monitorLoop samples the command queue depth until the engine stops.
func (e *Engine) monitorLoop() {
	ticker := e.clock.NewTicker(depthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			metrics.EngineQueueDepth.Set(float64(len(e.cmdCh)))
		case <-e.stopCh:
			return
		}
	}
}

func transitionLabel(t domain.Transition) string {
	return fmt.Sprintf("%s->%s", t.From, t.To)
}
