package repository

import "errors"

var (
	// ErrNotFound covers both a missing row and a row owned by another
	// user; callers cannot distinguish the two.
	ErrNotFound = errors.New("record not found")
)
