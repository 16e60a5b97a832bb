package lazy

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrInvalidArgument is returned by constructors given a nil factory or
	// an unknown Mode.
	ErrInvalidArgument = errors.New("lazy: invalid argument")

	// ErrRecursiveInitialization is returned when a factory reads the cell
	// it is initializing.
	ErrRecursiveInitialization = errors.New("lazy: recursive initialization")

	// ErrNoDefaultConstructor is returned by cells built with NewZero whose
	// value type has no usable default value.
	ErrNoDefaultConstructor = errors.New("lazy: no default constructor")
)

// PanicError is the fault recorded when a factory panics.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("lazy: factory panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
