package queue

import (
	"errors"
	"fmt"
)

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("refresh queue is full")
	ErrClosed = errors.New("refresh queue is closed")
)

// Reject builds the error returned to callers when Enqueue refuses a job.
func Reject(q Queue, groupID string) error {
	if q.IsClosed() {
		return fmt.Errorf("%w: group %s", ErrClosed, groupID)
	}
	return fmt.Errorf("%w: group %s", ErrFull, groupID)
}
