// Package redis holds the Redis-backed adapters: login sessions, the
// ranked feed cache, and the vote rate limiter. Redis is treated as
// disposable state; everything here can be rebuilt from PostgreSQL except
// active sessions, which simply expire.
package redis
