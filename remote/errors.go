package remote

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/native"
)

var (
	ErrEmptyURL  = errors.New("remote engine url is empty")
	ErrTransport = errors.New("remote engine transport failure")
	ErrRemote    = errors.New("remote engine error")
)

// codes names the sentinel errors that survive the trip over the wire, so errors.Is keeps
// working on the client side.
var codes = []struct {
	code string
	err  error
}{
	{"unknown_function", native.ErrUnknownFunction},
	{"bad_argument", native.ErrBadArgument},
	{"insufficient_data", native.ErrInsufficientData},
	{"missing_values", native.ErrMissingValues},
	{"not_seasonal", native.ErrNotSeasonal},
	{"unsupported_model", native.ErrUnsupportedModel},
	{"non_positive_values", native.ErrNonPositiveValues},
	{"invalid_argument", errdefs.ErrInvalidArgument},
	{"unsupported_shape", errdefs.ErrUnsupportedShape},
	{"type", errdefs.ErrType},
	{"out_of_range", errdefs.ErrOutOfRange},
	{"bad_tsp", engine.ErrBadTsp},
	{"not_classed", engine.ErrNotClassed},
	{"unknown_kind", engine.ErrUnknownKind},
}

func codeOf(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

func sentinel(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return ErrRemote
}

// wireError is the error body of a failed call.
type wireError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error is an engine failure reported by the server. It unwraps to the matching sentinel
// when the server sent a known code, and to ErrRemote otherwise.
type Error struct {
	Function string
	Message  string
	Code     string
	Status   int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Function, e.Message)
}

func (e *Error) Unwrap() error {
	return sentinel(e.Code)
}
