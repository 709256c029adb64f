package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrRegistryLookup = errors.New("content type not in registry")
	ErrStoreWrite     = errors.New("audit store write failed")
	ErrStoreRead      = errors.New("audit store read failed")
)
