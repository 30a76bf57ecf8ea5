package router

import "errors"

var (
	// ErrClassificationUnavailable wraps generation failures during
	// classification. It is never converted into the default category.
	ErrClassificationUnavailable = errors.New("classification unavailable")
	// ErrInvalidArtifact is returned by the validation gates.
	ErrInvalidArtifact = errors.New("invalid intermediate artifact")
	ErrEmptyQuestion   = errors.New("question is empty")
)

const (
	calculationApology = "Sorry, I couldn't parse a valid calculation."
	datetimeApology    = "Sorry, I couldn't produce safe datetime code."
)
