package compressio

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Error kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrUnknownMethod           = errors.New("compressio: unknown method")
	ErrUnknownExtension        = errors.New("compressio: unknown extension")
	ErrCompressionNotSpecified = errors.New("compressio: compression not specified")
	ErrUnsupportedMode         = errors.New("compressio: unsupported mode")
	ErrConfiguration           = errors.New("compressio: configuration error")
	ErrSerialization           = errors.New("compressio: serialization failed")
	ErrDeserialization         = errors.New("compressio: deserialization failed")
	ErrResource                = errors.New("compressio: resource error")
)

// OpError records the operation and the names involved in a failure.
type OpError struct {
	Op        string // register, alias, resolve, open, write, read, close
	Method    string
	Extension string
	Mode      Mode
	Kind      error
	Err       error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteString(": ")
	b.WriteString(e.Op)
	if e.Method != "" {
		b.WriteString(" method=")
		b.WriteString(e.Method)
	}
	if e.Extension != "" {
		b.WriteString(" extension=")
		b.WriteString(e.Extension)
	}
	if e.Mode != ModeUnsupported {
		b.WriteString(" mode=")
		b.WriteString(e.Mode.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *OpError) Unwrap() error { return e.Err }

// Is reports whether target is the kind of e.
func (e *OpError) Is(target error) bool { return target == e.Kind }

func opError(kind error, op, method string, cause error) *OpError {
	return &OpError{Op: op, Method: method, Kind: kind, Err: cause}
}

func configErrorf(op, method, format string, args ...any) error {
	return opError(ErrConfiguration, op, method, errors.Newf(format, args...))
}

// classify wraps err as kind unless it already carries one of the
// package error kinds.
func classify(kind error, op, method string, mode Mode, err error) error {
	if err == nil {
		return nil
	}
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	e := opError(kind, op, method, err)
	e.Mode = mode
	return e
}
