package analysis

import "errors"

// ErrValidation indicates an event-sourced request missing its bucket or key.
var ErrValidation = errors.New("invalid analysis request")

// ErrFetch indicates the source object could not be read from the object store.
var ErrFetch = errors.New("failed to read source object")

// ErrAnalysis indicates the analysis agent failed to produce a result.
var ErrAnalysis = errors.New("analysis failed")
