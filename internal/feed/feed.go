// Package feed ranks memes for the public feed. Ranking is pure: it
// copies its input, sorts by the requested policy, and pages the result.
package feed

import (
	"sort"

	"github.com/DirtyReal/cfh-new/internal/domain"
)

// Policy selects the feed ordering.
type Policy string

const (
	// PolicyHot blends net score with recency so fresh content can
	// outrank stale high scorers.
	PolicyHot Policy = "hot"
	// PolicyNew orders strictly by creation time, newest first.
	PolicyNew Policy = "new"
	// PolicyTop orders strictly by net score, highest first.
	PolicyTop Policy = "top"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ParsePolicy maps a query string value to a policy. Anything
// unrecognized, including the empty string, falls back to hot.
func ParsePolicy(s string) Policy {
	switch Policy(s) {
	case PolicyNew:
		return PolicyNew
	case PolicyTop:
		return PolicyTop
	default:
		return PolicyHot
	}
}

// Rank returns the requested page of memes ordered by policy. The input
// slice is not modified. Ties keep their input order, and an offset past
// the end yields an empty page rather than an error.
func Rank(memes []domain.Meme, policy Policy, offset, limit int) []domain.Meme {
	ranked := make([]domain.Meme, len(memes))
	copy(ranked, memes)

	switch policy {
	case PolicyNew:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
		})
	case PolicyTop:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].NetScore() > ranked[j].NetScore()
		})
	default:
		sort.SliceStable(ranked, func(i, j int) bool {
			return hotScore(ranked[i]) > hotScore(ranked[j])
		})
	}

	return page(ranked, offset, limit)
}

// hotScore is net score plus a small recency term: one net vote outweighs
// roughly eleven and a half days of age difference.
func hotScore(m domain.Meme) float64 {
	return float64(m.NetScore()) + float64(m.CreatedAt.Unix())/1_000_000
}

// ClampLimit normalizes a requested page size to [1, MaxLimit], applying
// the default when the request does not specify one.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func page(memes []domain.Meme, offset, limit int) []domain.Meme {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(memes) {
		return []domain.Meme{}
	}
	end := offset + limit
	if end > len(memes) {
		end = len(memes)
	}
	return memes[offset:end]
}
