package llm

import (
	"errors"
	"fmt"
)

// TransportError reports a failed exchange with the provider: a connection
// error or a non-success HTTP status. These abort the whole ask and are never
// retried, since replaying a request could duplicate tool side effects.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider request failed: %v", e.Err)
	}
	return fmt.Sprintf("provider request failed: status %d: %s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is (or wraps) a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
