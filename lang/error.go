package lang

import (
	"errors"
	"log/slog"
	"strings"
)

// Recoverable parse errors. None of them stop a parse; they are collected in
// [Document.Warnings] and logged.
var (
	ErrMalformedLine         = NewError("malformed line")
	ErrMalformedFunctionBody = NewError("unterminated function body")
	ErrUnterminatedHideBlock = NewError("unterminated hide block")
	ErrReadInput             = NewError("failed to read input")
)

// Error is an error with structured logging attributes.
//
// Values derived from a sentinel with [Error.Wrap] or [Error.With] still
// match it under [errors.Is].
type Error struct {
	base  *Error
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError creates a sentinel error.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError returns err as an *Error, wrapping it when it is not one already.
func WrapError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{err: err}
}

func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && e.root() == t.root()
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("msg", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the attributes attached with [Error.With].
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// Wrap returns a copy of e with err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{base: e.root(), msg: e.msg, err: err, attrs: e.attrs}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	merged = append(merged, e.attrs...)
	merged = append(merged, attrs...)

	return &Error{base: e.root(), msg: e.msg, err: e.err, attrs: merged}
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}
