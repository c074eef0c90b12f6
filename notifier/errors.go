package notifier

import (
	"fmt"
)

// DeliveryError means the subscriber did not accept a notification. It leads to a retry, never to a
// caller-visible failure.
type DeliveryError struct {
	Url        string
	StatusCode int // zero when no response arrived
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("delivery to %s failed with status %d", e.Url, e.StatusCode)
	}
	return fmt.Sprintf("delivery to %s failed: %v", e.Url, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func (e *DeliveryError) reason() string {
	if e.StatusCode != 0 {
		return "status"
	}
	return "network"
}
