package store

import "errors"

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrReadOnly          = errors.New("write attempted in a read-only transaction")
	ErrClosed            = errors.New("store is closed")
)
