package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTask       = errors.New("invalid task type")
	ErrInvalidFormat     = errors.New("invalid output format")
	ErrInvalidTransition = errors.New("invalid job state transition")
	ErrJobNotCompleted   = errors.New("job has not completed")
)
