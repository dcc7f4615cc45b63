package repository

import "errors"

var (
	// ErrNotFound indicates the referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrLastAdmin indicates the operation would remove the only admin.
	ErrLastAdmin = errors.New("cannot remove the last admin")
)
