package bridge

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the dispatcher that is not an
// underlying capability failure matches one of these with errors.Is.
var (
	ErrUsage           = errors.New("usage error")
	ErrValidation      = errors.New("validation error")
	ErrUnknownAction   = errors.New("unknown action")
	ErrUnknownFunction = errors.New("unknown function")
)

// kindError carries a caller-facing message and the kind it belongs to.
type kindError struct {
	kind error
	msg  string
	err  error
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.err
}

// NewUsageError returns an error matching ErrUsage with the given message.
func NewUsageError(format string, args ...interface{}) error {
	return &kindError{kind: ErrUsage, msg: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...interface{}) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// wrapUsage marks err as a usage error while keeping it matchable.
func wrapUsage(err error) error {
	return &kindError{kind: ErrUsage, msg: err.Error(), err: err}
}

func unknownActionError(action string) error {
	return &kindError{kind: ErrUnknownAction, msg: "Unknown action: " + action}
}

func unknownFunctionError(fn string) error {
	return &kindError{kind: ErrUnknownFunction, msg: "Unknown function: " + fn}
}
