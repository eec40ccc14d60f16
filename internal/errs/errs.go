// Package errs provides error handling for patomic.
//
// It re-exports github.com/cockroachdb/errors and adds the validation
// taxonomy shared by the builders and the client. A validation error
// reads "<tag> <message>", where tag names the method that rejected its
// input (for example "query.Find"), and carries a kind mark so callers
// can branch with Is:
//
//	if errs.Is(err, errs.ErrInvalidEnum) {
//	    // print the valid options
//	}
package errs

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New      = crdb.New
	Newf     = crdb.Newf
	Wrap     = crdb.Wrap
	Wrapf    = crdb.Wrapf
	WithHint = crdb.WithHint
	Mark     = crdb.Mark
)

// Error inspection
var (
	Is    = crdb.Is
	IsAny = crdb.IsAny
	As    = crdb.As
)

// Validation kinds.
var (
	ErrMissingArgument = crdb.New("missing argument")
	ErrWrongType       = crdb.New("wrong type")
	ErrInvalidEnum     = crdb.New("invalid enum value")
	ErrSequence        = crdb.New("sequencing violation")
	ErrResource        = crdb.New("resource precondition failed")
)

// Transport kinds.
var (
	ErrRequest = crdb.New("request failed")
	ErrStatus  = crdb.New("unexpected status")
	ErrDecode  = crdb.New("undecodable response")
)

// Validation builds a validation error of the given kind.
// The message is formatted with args and prefixed by tag.
func Validation(tag string, kind error, format string, args ...any) error {
	err := crdb.NewWithDepthf(1, "%s %s", tag, fmt.Sprintf(format, args...))
	return crdb.Mark(err, kind)
}

// KindOf returns the validation or transport kind carried by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrMissingArgument, ErrWrongType, ErrInvalidEnum, ErrSequence, ErrResource,
		ErrRequest, ErrStatus, ErrDecode,
	} {
		if crdb.Is(err, kind) {
			return kind
		}
	}
	return nil
}
