package snapshots

import (
	"errors"
	"fmt"
)

type NotFoundReason string

const (
	ReasonKeyMissing    NotFoundReason = "key"
	ReasonObjectMissing NotFoundReason = "object"
)

type NotFoundError struct {
	Key    string
	Reason NotFoundReason
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Key, e.Reason)
}

func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

func IsKeyMissing(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe) && nfe.Reason == ReasonKeyMissing
}

func IsObjectMissing(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe) && nfe.Reason == ReasonObjectMissing
}
