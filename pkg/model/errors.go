package model

// User-facing failure messages produced by the client itself.
const (
	MsgGeneric            = "An error occurred"
	MsgNetwork            = "Network error. Please try again."
	MsgUnexpectedResponse = "Unexpected response from server."
	MsgRequiredFields     = "Please fill in all required fields."
	MsgPasswordMismatch   = "Passwords do not match."
	MsgInvalidEmail       = "Please enter a valid email address."
)

// Result is the outcome of a remote call: either a payload or a single
// human-readable failure message, never both and never neither.
type Result[T any] struct {
	value T
	msg   string
	ok    bool
}

// OK wraps a successful payload.
func OK[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Fail wraps a failure message. An empty message becomes MsgGeneric.
func Fail[T any](msg string) Result[T] {
	if msg == "" {
		msg = MsgGeneric
	}
	return Result[T]{msg: msg}
}

// IsOK reports whether the result carries a payload.
func (r Result[T]) IsOK() bool {
	return r.ok
}

// Value returns the payload and whether the call succeeded.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.ok
}

// Message returns the failure message, or "" on success.
func (r Result[T]) Message() string {
	return r.msg
}

// Recast carries a failure into a Result of a different payload type.
// Calling it on a success yields a generic failure.
func Recast[U, T any](r Result[T]) Result[U] {
	return Fail[U](r.msg)
}
