package core

type OpState int

const (
	OpIdle OpState = iota
	OpPending
	OpSucceeded
	OpFailed
)

func (s OpState) String() string {
	switch s {
	case OpPending:
		return "pending"
	case OpSucceeded:
		return "succeeded"
	case OpFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Operation is the status of one asynchronous action: Idle | Pending | Succeeded(T) | Failed(err).
// The zero value is Idle.
type Operation[T any] struct {
	state OpState
	value T
	err   error
}

func Begin[T any]() Operation[T] {
	return Operation[T]{state: OpPending}
}

func Succeed[T any](v T) Operation[T] {
	return Operation[T]{state: OpSucceeded, value: v}
}

func Fail[T any](err error) Operation[T] {
	return Operation[T]{state: OpFailed, err: err}
}

func (op Operation[T]) State() OpState { return op.state }
func (op Operation[T]) IsIdle() bool   { return op.state == OpIdle }
func (op Operation[T]) IsPending() bool {
	return op.state == OpPending
}

// Value returns the result of a succeeded operation.
func (op Operation[T]) Value() (T, bool) {
	return op.value, op.state == OpSucceeded
}

// Err returns the failure of a failed operation.
func (op Operation[T]) Err() error {
	if op.state != OpFailed {
		return nil
	}
	return op.err
}

// Message is the user-facing text of a failure, or fallback when the error carries none.
func (op Operation[T]) Message(fallback string) string {
	if op.state != OpFailed {
		return ""
	}
	return UserMessage(op.err, fallback)
}
