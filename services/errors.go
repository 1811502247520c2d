package services

import "errors"

// Sentinel errors the handlers map onto HTTP statuses. ErrCardNotFound and
// ErrProfileNotFound are the expected, user-facing misses; ErrProfileIntegrity
// means a card row points at a profile that does not exist, which is a data
// problem and must never be reported as a plain not-found.
var (
	ErrCardNotFound      = errors.New("card not found")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrProfileIntegrity  = errors.New("card owner profile missing")
	ErrCardAlreadyExists = errors.New("user already has a card assigned")
)
