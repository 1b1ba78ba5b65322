package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Idle per-IP rate buckets are swept on a fixed cadence so the map does not
// grow with every address that ever connected.
const (
	bucketSweepInterval = 5 * time.Minute
	bucketIdleCutoff    = 10 * time.Minute
)

// GlobalConnectionLimiter caps concurrent feed sockets for the whole
// instance. Lock-free so the accept path never serializes.
type GlobalConnectionLimiter struct {
	current atomic.Int64
	max     int64
}

func NewGlobalConnectionLimiter(max int64) *GlobalConnectionLimiter {
	return &GlobalConnectionLimiter{max: max}
}

// Acquire claims a slot. Returns false when the instance is full.
func (l *GlobalConnectionLimiter) Acquire() bool {
	for {
		current := l.current.Load()
		if current >= l.max {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// Release frees a slot claimed by Acquire.
func (l *GlobalConnectionLimiter) Release() {
	l.current.Add(-1)
}

// Current reports the number of held slots.
func (l *GlobalConnectionLimiter) Current() int64 {
	return l.current.Load()
}

// IPConnectionLimiter caps concurrent feed sockets per remote address so a
// single client cannot exhaust the global budget.
type IPConnectionLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	maxPer int
}

func NewIPConnectionLimiter(maxPer int) *IPConnectionLimiter {
	return &IPConnectionLimiter{
		counts: make(map[string]int),
		maxPer: maxPer,
	}
}

// Acquire claims a slot for ip. Returns false when the address is at its cap.
func (l *IPConnectionLimiter) Acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.counts[ip] >= l.maxPer {
		return false
	}
	l.counts[ip]++
	return true
}

// Release frees a slot for ip, dropping the entry once it reaches zero.
func (l *IPConnectionLimiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if count := l.counts[ip]; count > 0 {
		l.counts[ip] = count - 1
		if l.counts[ip] == 0 {
			delete(l.counts, ip)
		}
	}
}

// Count reports the held slots for ip.
func (l *IPConnectionLimiter) Count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[ip]
}

// ConnectionRateLimiter throttles how fast a single address may open new
// sockets, one token bucket per IP. The clock is injected so tests can
// advance time instead of sleeping.
type ConnectionRateLimiter struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	buckets map[string]*rateBucket
	rate    rate.Limit
	burst   int
	sweepAt time.Time
}

type rateBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewConnectionRateLimiter(perSecond float64, burst int, clock clockwork.Clock) *ConnectionRateLimiter {
	return &ConnectionRateLimiter{
		clock:   clock,
		buckets: make(map[string]*rateBucket),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		sweepAt: clock.Now().Add(bucketSweepInterval),
	}
}

// Allow takes a token from ip's bucket, creating the bucket on first sight.
func (l *ConnectionRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.After(l.sweepAt) {
		l.sweep(now)
		l.sweepAt = now.Add(bucketSweepInterval)
	}

	bucket, ok := l.buckets[ip]
	if !ok {
		bucket = &rateBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[ip] = bucket
	}
	bucket.lastSeen = now

	return bucket.limiter.AllowN(now, 1)
}

// sweep drops buckets idle past the cutoff. Caller holds mu.
func (l *ConnectionRateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-bucketIdleCutoff)
	for ip, bucket := range l.buckets {
		if bucket.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}

// LimitReason labels why Acquire rejected a connection. The value feeds the
// rejection metric and the client-facing error.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

// ConnectionLimits layers the rate, global, and per-IP limiters in front of
// the feed socket endpoint.
type ConnectionLimits struct {
	global *GlobalConnectionLimiter
	perIP  *IPConnectionLimiter
	rate   *ConnectionRateLimiter
}

func NewConnectionLimits(globalMax int64, perIPMax int, perSecond float64, burst int, clock clockwork.Clock) *ConnectionLimits {
	return &ConnectionLimits{
		global: NewGlobalConnectionLimiter(globalMax),
		perIP:  NewIPConnectionLimiter(perIPMax),
		rate:   NewConnectionRateLimiter(perSecond, burst, clock),
	}
}

// Acquire claims a slot under every limit, cheapest check first. On
// rejection it reports which limit tripped; partial claims roll back.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	if !l.rate.Allow(ip) {
		return false, LimitReasonRate
	}
	if !l.global.Acquire() {
		return false, LimitReasonGlobal
	}
	if !l.perIP.Acquire(ip) {
		l.global.Release()
		return false, LimitReasonPerIP
	}
	return true, ""
}

// Release frees the slots claimed by a successful Acquire.
func (l *ConnectionLimits) Release(ip string) {
	l.perIP.Release(ip)
	l.global.Release()
}
