package engine

import (
	"errors"
	"fmt"
)

// ErrNoListener is returned by Mount.Fire when the target node has no
// listener for the event.
var ErrNoListener = errors.New("no listener for event")

// NodeNotFoundError is returned by Mount.Fire when no element matches.
type NodeNotFoundError struct {
	Tag   string
	Index int
}

// Error implements the error interface.
func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("no <%s> element at index %d", e.Tag, e.Index)
}

// IsNodeNotFound returns true if err is or wraps a NodeNotFoundError.
func IsNodeNotFound(err error) bool {
	var nf *NodeNotFoundError
	return errors.As(err, &nf)
}
