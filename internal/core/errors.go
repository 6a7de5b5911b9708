package core

import "errors"

// Sentinel errors shared across packages.
var (
	// Configuration errors
	ErrConfigInvalid = errors.New("faultline: invalid configuration")
	ErrUnknownFilter = errors.New("faultline: unknown filter type")

	// Event plumbing errors
	ErrQueueClosed = errors.New("faultline: event queue closed")

	// Framing errors
	ErrFrameTooShort = errors.New("faultline: frame too short")
	ErrBadChecksum   = errors.New("faultline: frame checksum mismatch")

	// Filter lifecycle errors
	ErrFilterClosed = errors.New("faultline: filter closed")
)
