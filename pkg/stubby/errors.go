package stubby

import "errors"

// ErrNotStarted is returned by Stop when the server was never started.
var ErrNotStarted = errors.New("cannot stop stubby when it has not been started")

// Op names a lifecycle operation.
type Op string

// Lifecycle operations.
const (
	OpStart Op = "start"
	OpStop  Op = "stop"
	OpJoin  Op = "join"
)

// LifecycleError wraps a failure of the underlying stub server.
type LifecycleError struct {
	Op  Op
	Err error
}

// Message returns the fixed description of the failed operation.
func (e *LifecycleError) Message() string {
	switch e.Op {
	case OpStart:
		return "failed to start stubby"
	case OpStop:
		return "failed to stop stubby"
	case OpJoin:
		return "could not join stubby"
	default:
		return "stubby " + string(e.Op) + " failed"
	}
}

func (e *LifecycleError) Error() string {
	if e.Err == nil {
		return e.Message()
	}
	return e.Message() + ": " + e.Err.Error()
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// IsOp reports whether err is a LifecycleError for op.
func IsOp(err error, op Op) bool {
	var le *LifecycleError
	return errors.As(err, &le) && le.Op == op
}
