package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so the bot and HTTP layers can pick user-facing wording.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotConfigured     = errors.New("verification not configured")
	ErrAlreadyPending    = errors.New("verification already pending")
	ErrInvalidAttachment = errors.New("invalid attachment")
	ErrBadRequest        = errors.New("bad request")
	ErrForbidden         = errors.New("forbidden")
)
