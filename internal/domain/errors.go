package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrMemeNotFound       = errors.New("meme not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSceneNotFound      = errors.New("scene not found")
	ErrInvalidChoice      = errors.New("choice not available in scene")
	ErrInvalidDirection   = errors.New("direction not legal for subject kind")
	ErrInvalidKind        = errors.New("unknown subject kind")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrVoteRateLimited    = errors.New("vote rate limit exceeded")
)

// NotFoundFor maps a subject kind to its not-found sentinel.
func NotFoundFor(kind SubjectKind) error {
	switch kind {
	case KindMeme:
		return ErrMemeNotFound
	case KindComment:
		return ErrCommentNotFound
	case KindResource:
		return ErrResourceNotFound
	default:
		return ErrInvalidKind
	}
}
