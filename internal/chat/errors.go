package chat

import "errors"

// Error classes surfaced by the pipeline. The HTTP layer maps ErrMissingFields
// to a 400; everything else becomes a generic 500 with detail logged server-side.
var (
	// ErrMissingFields means userId or text was empty. Returned before any
	// side effect: no classification call, no write.
	ErrMissingFields = errors.New("missing userId or text")

	// ErrServiceFailure wraps classifier/generator failures and timeouts.
	ErrServiceFailure = errors.New("upstream service failure")

	// ErrPersistence wraps log store failures. Writes already committed when
	// it occurs are not rolled back.
	ErrPersistence = errors.New("log store failure")
)
