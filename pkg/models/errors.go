package models

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrAlreadyBorrowed   = errors.New("book already borrowed by member")
	ErrDuplicate         = errors.New("duplicate value")
	ErrInvalidReference  = errors.New("referenced record does not exist")
)
