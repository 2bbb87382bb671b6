// Package apperr defines the error kinds surfaced by the record lifecycles
// and their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	// KindDecode is a malformed image payload.
	KindDecode
	// KindNotFound is a missing blob or record.
	KindNotFound
	// KindUpstream is a failed or malformed catalog/classifier call.
	KindUpstream
	// KindInvalid is a request value outside its allowed set.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode error"
	case KindNotFound:
		return "not found"
	case KindUpstream:
		return "upstream error"
	case KindInvalid:
		return "invalid request"
	default:
		return "internal error"
	}
}

// HTTPStatus returns the response code handlers use for this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindDecode, KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind. A nil err yields an error holding only the kind.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is E with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the outermost kind in err's chain, KindInternal if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
