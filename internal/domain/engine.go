package domain

import "context"

// VoteEngine serializes vote casts and answers per-user vote lookups.
type VoteEngine interface {
	CastVote(ctx context.Context, kind SubjectKind, subjectID, userID int64, cast Direction) (VoteResult, error)
	UserVote(ctx context.Context, kind SubjectKind, subjectID, userID int64) (Direction, error)
	UserVotes(ctx context.Context, kind SubjectKind, ids []int64, userID int64) (map[int64]Direction, error)
}
