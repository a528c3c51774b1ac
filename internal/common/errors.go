// Package common defines shared sentinel errors and small utilities used
// across the journal client. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Key material / user-supplied data errors. These are raised at the
	// boundary, before any network action.
	ErrInvalidSecret           = errors.New("invalid secret")
	ErrInvalidFormat           = errors.New("invalid format")
	ErrInvalidConnectionString = errors.New("invalid connection string")

	// Handshake / transport errors. Terminal for the current attempt,
	// recoverable by starting a new one.
	ErrTransport       = errors.New("transport error")
	ErrTimeout         = errors.New("connection attempt timed out")
	ErrRemoteRejection = errors.New("remote signer rejected the request")

	// Stake lifecycle errors.
	ErrStakeNotActive     = errors.New("no active stake")
	ErrStakeNotConfirmed  = errors.New("payment not confirmed yet")
	ErrStakeAlreadyExists = errors.New("a stake already exists")
)
