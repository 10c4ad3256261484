package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrorKind classifies assembly failures so callers can map them to a
// response without string matching.
type ErrorKind uint8

const (
	// KindInternal covers unexpected failures: storage errors, broken
	// catalog configuration, bugs.
	KindInternal ErrorKind = iota
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindInvalidArgument means the request itself is unacceptable.
	KindInvalidArgument
	// KindInvalidState means the operation conflicts with the order's
	// current state.
	KindInvalidState
	// KindExternal means a collaborator on the critical path failed.
	KindExternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidState:
		return "invalid_state"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

// AssemblyError is the typed failure returned by order assembly and the
// payment-status transitions.
type AssemblyError struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *AssemblyError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *AssemblyError) Unwrap() error { return e.err }

// KindOf extracts the error's classification, defaulting to KindInternal for
// errors that did not originate here.
func KindOf(err error) ErrorKind {
	var ae *AssemblyError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func errNotFound(err error, format string, args ...any) error {
	return &AssemblyError{Kind: KindNotFound, msg: fmt.Sprintf(format, args...), err: err}
}

func errInvalidArgument(format string, args ...any) error {
	return &AssemblyError{Kind: KindInvalidArgument, msg: fmt.Sprintf(format, args...)}
}

func errInvalidState(format string, args ...any) error {
	return &AssemblyError{Kind: KindInvalidState, msg: fmt.Sprintf(format, args...)}
}

func errExternal(err error, format string, args ...any) error {
	return &AssemblyError{Kind: KindExternal, msg: fmt.Sprintf(format, args...), err: err}
}

func errInternal(err error, format string, args ...any) error {
	return &AssemblyError{Kind: KindInternal, msg: fmt.Sprintf(format, args...), err: err}
}
