// Package errors provides structured error types so that callers can tell
// expected outcomes (a correlation failure, an exhausted budget) from faults.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeTransport,
//	    "failed to start log process",
//	    cause,
//	    map[string]any{
//	        "channel": "kernel",
//	        "serial":  serial,
//	    },
//	)
//
//	if errors.HasCode(err, errors.ErrCodeCorrelation) {
//	    // retry the iteration
//	}
package errors
