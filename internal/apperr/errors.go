package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrAmbiguous   = errors.New("ambiguous")
	ErrPersistence = errors.New("persistence failure")
)
