package bridge

import "errors"

var (
	ErrUnknownEvent = errors.New("unknown worker event")
	ErrWorkerLost   = errors.New("worker channel lost")
	ErrSerialLost   = errors.New("serial connection lost")
)
