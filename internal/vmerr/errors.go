// Package vmerr holds the error taxonomy from spec §7 (DecodeError,
// ResolutionError, StateError, ArithmeticError, UnsupportedError). It is
// its own package so both internal/classfile and internal/vm can raise
// and recognize these kinds without an import cycle.
package vmerr

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Kind names one of the five error categories from §7.
type Kind string

const (
	KindDecode      Kind = "DecodeError"
	KindResolution  Kind = "ResolutionError"
	KindState       Kind = "StateError"
	KindArithmetic  Kind = "ArithmeticError"
	KindUnsupported Kind = "UnsupportedError"
)

// Error wraps a causal error with the §7 kind and, where available, the
// instruction/constant-pool context that produced it.
type Error struct {
	Kind    Kind
	Context string // e.g. "invokevirtual at PC=12" or "constant pool index 7"
	cause   error
}

func (e *Error) Error() string {
	if e.Context == "" {
		return string(e.Kind) + ": " + e.cause.Error()
	}
	return string(e.Kind) + " (" + e.Context + "): " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

func newf(kind Kind, context string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Context: context, cause: errors.Errorf(format, args...)}
}

// Decode builds a DecodeError (malformed class file, unknown opcode/tag).
func Decode(context, format string, args ...interface{}) *Error {
	return newf(KindDecode, context, format, args...)
}

// Resolution builds a ResolutionError (unreadable class, wrong-variant
// constant-pool reference).
func Resolution(context, format string, args ...interface{}) *Error {
	return newf(KindResolution, context, format, args...)
}

// ResolutionWrap wraps an existing error (typically an os.Open/os.ReadFile
// failure) as a ResolutionError, preserving the pkg/errors cause chain.
func ResolutionWrap(cause error, context string) *Error {
	return &Error{Kind: KindResolution, Context: context, cause: errors.WithStack(cause)}
}

// State builds a StateError (stack underflow, bad local index, type
// mismatch at an operator).
func State(context, format string, args ...interface{}) *Error {
	return newf(KindState, context, format, args...)
}

// Arithmetic builds an ArithmeticError (integer division/remainder by zero).
func Arithmetic(context, format string, args ...interface{}) *Error {
	return newf(KindArithmetic, context, format, args...)
}

// Unsupported builds an UnsupportedError (recognized but unimplemented
// instruction, tag, or attribute).
func Unsupported(context, format string, args ...interface{}) *Error {
	return newf(KindUnsupported, context, format, args...)
}

// Is reports whether err (or something it wraps) is a vmerr.Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
