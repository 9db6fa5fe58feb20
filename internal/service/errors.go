package service

import "errors"

// Shared domain errors. Handlers translate these to response codes with
// errors.Is; every error is terminal for its request.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("access denied")
	ErrInvalidState     = errors.New("operation not valid for current lifecycle status")
	ErrOutOfRange       = errors.New("index out of range")
	ErrAlreadyCompleted = errors.New("exam already taken")
	ErrAlreadyFinalized = errors.New("attempt already finalized")
	ErrAlreadyExists    = errors.New("resource already exists")
)
