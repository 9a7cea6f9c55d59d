package worker

import "errors"

var (
	ErrClosed       = errors.New("worker channel closed")
	ErrUnknownCodec = errors.New("unknown worker codec")
	ErrNoCommand    = errors.New("no worker command configured")
	ErrAlreadyBound = errors.New("worker already connected")
)
