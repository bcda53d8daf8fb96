package message

import "errors"

// ErrInvalidMessage is returned by Construct when content fails the
// per-kind schema check (spec §4.1 "invalid_message").
var ErrInvalidMessage = errors.New("invalid_message")

// ErrUnknownKind is returned when a kind has no registered validator.
var ErrUnknownKind = errors.New("unknown message kind")
