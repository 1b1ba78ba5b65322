// Package app provides the application service layer.
//
// Orchestrates use cases: accounts and sessions, the ranked meme feed, vote
// casts, comments, the resource library, the story game, newsletter signups.
// Sits between HTTP handlers and domain repositories. Depends on domain
// interfaces, not concrete implementations.
package app
