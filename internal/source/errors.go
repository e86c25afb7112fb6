package source

import (
	"fmt"
	"time"
)

// TimeoutError: one source exceeded its per-call deadline. The aggregator
// treats it exactly like a transport failure.
type TimeoutError struct {
	Source  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("source %s timed out after %s", e.Source, e.Timeout)
	}
	return fmt.Sprintf("source %s timed out", e.Source)
}

// TransportError: the source process failed, exited non-zero, or produced
// output the client could not decode.
type TransportError struct {
	Source string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
