package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrOwnershipMismatch = errors.New("contract does not belong to the specified user")
)
