package bootstrap

import (
	"errors"
	"fmt"
)

// ErrNotStarted is returned by Run and Shutdown when Start has not
// succeeded for the container.
var ErrNotStarted = errors.New("bootstrap: not started")

// Error reports a failed framework or tenant initialization. The request
// that hit it must stop.
type Error struct {
	Namespace string
	Stage     string
	Cause     error
}

func (e *Error) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("bootstrap %s: %s: %v", e.Namespace, e.Stage, e.Cause)
	}
	return fmt.Sprintf("bootstrap: %s: %v", e.Stage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// FatalKey selects the "fatal.bootstrap.*" stop page texts.
func (e *Error) FatalKey() string {
	return "bootstrap"
}

func fail(namespace, stage string, err error) error {
	return &Error{Namespace: namespace, Stage: stage, Cause: err}
}
