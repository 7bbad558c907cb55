package order

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means the processor credentials are absent. Fatal at
// request time; never retried.
var ErrNotConfigured = errors.New("payment system not configured")

// InvalidInputError reports a basket or customer-record validation failure,
// raised before any external call is made.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProcessorError wraps a processor-reported failure. The caller decides
// whether the customer may retry; this service never retries on its own.
type ProcessorError struct {
	Code    string
	Message string
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("payment error: %s", e.Message)
}
