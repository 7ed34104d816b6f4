package models

import (
	"github.com/pkg/errors"
)

var (
	ErrEncoding        = errors.New("barcode encoding failed")
	ErrComposition     = errors.New("card composition failed")
	ErrStorage         = errors.New("subscriber storage failed")
	ErrUnauthorized    = errors.New("requester is not an admin")
	ErrIssuanceTimeout = errors.New("card issuance timed out")
)

// Error ties an underlying failure to one of the sentinel kinds above so
// callers can branch with errors.Is while logs keep the full cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func EncodingError(op string, err error) error {
	return &Error{Kind: ErrEncoding, Op: op, Err: err}
}

func CompositionError(op string, err error) error {
	return &Error{Kind: ErrComposition, Op: op, Err: err}
}

func StorageError(op string, err error) error {
	return &Error{Kind: ErrStorage, Op: op, Err: err}
}
