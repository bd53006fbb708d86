package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the analysis pipeline and its collaborators.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrParseFailure = errors.New("parse failure")
)

// ErrJobNotFound and ErrPlanNotFound are NotFound errors; match them with errors.Is(err, ErrNotFound).
var (
	ErrJobNotFound  = fmt.Errorf("job %w", ErrNotFound)
	ErrPlanNotFound = fmt.Errorf("plan %w", ErrNotFound)
)
