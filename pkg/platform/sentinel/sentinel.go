package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores and remote
// collaborators. Services translate them into domain errors.
//
//   - ErrNotFound: the record does not exist
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrExhausted: the backing capacity (seats, number range) is used up
//   - ErrUnavailable: the backing system could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExhausted   = errors.New("exhausted")
	ErrUnavailable = errors.New("unavailable")
)
