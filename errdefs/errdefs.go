// Package errdefs holds the error taxonomy shared by every conversion, extraction and
// translation step. Callers branch on these with errors.Is.
package errdefs

import "errors"

var (
	// ErrInvalidArgument means the value's type or shape cannot be interpreted by the
	// converter or extractor it was handed to.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedShape means the input is well formed but out of scope, e.g. an index
	// with three or more levels.
	ErrUnsupportedShape = errors.New("unsupported shape")

	// ErrType means a value is neither a host series nor an engine value, or it cannot be
	// introspected for a class tag.
	ErrType = errors.New("type error")

	// ErrFormat is returned by readers when delimited input has the wrong layout.
	ErrFormat = errors.New("wrong format")

	// ErrOutOfRange is returned when a parameter is validated locally before delegation.
	ErrOutOfRange = errors.New("value out of range")
)
