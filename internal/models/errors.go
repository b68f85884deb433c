package models

import "fmt"

// InputError indicates the request itself is unusable (too little text,
// unsupported format). Surfaced to the caller immediately; the pipeline
// does not run.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}

// TransientError marks a provider failure worth one retry (timeout, rate
// limit, flaky transport).
type TransientError struct {
	Provider string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("provider %s transient failure: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a provider failure that retrying cannot fix (bad
// credentials, invalid configuration). The provider is skipped for the rest
// of the request.
type PermanentError struct {
	Provider string
	Err      error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("provider %s permanent failure: %v", e.Provider, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// PipelineTimeoutError indicates the overall wall-clock budget elapsed before
// either analysis branch produced a result.
type PipelineTimeoutError struct {
	Budget string
}

func (e *PipelineTimeoutError) Error() string {
	return "analysis timed out: budget " + e.Budget + " elapsed with no completed branch"
}
