package entities

import "github.com/pkg/errors"

var (
	ErrJobNotFound          = errors.New("job not found")
	ErrDuplicateApplication = errors.New("already applied to this job")
	ErrApplicationNotFound  = errors.New("application not found")
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
)
