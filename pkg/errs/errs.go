// Package errs carries the service-wide error taxonomy. Handlers and the
// dispatch engine branch on the Kind, never on driver-level error values.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation: malformed ids or payloads, rejected before any side effect.
	KindValidation Kind = iota
	// KindDuplicate: unique-constraint violation (registration, friend request).
	KindDuplicate
	// KindNotFound: unknown user, message peer or friend request.
	KindNotFound
	// KindStoreUnavailable: the durable store call failed or timed out.
	KindStoreUnavailable
	// KindDelivery: live push to a dead or saturated connection. Always
	// swallowed by the dispatcher, never surfaced to the sender.
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not_found"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(reason string) error {
	return &Error{Kind: KindValidation, Reason: reason}
}

func Duplicate(reason string) error {
	return &Error{Kind: KindDuplicate, Reason: reason}
}

func NotFound(reason string) error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

func StoreUnavailable(reason string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Reason: reason, Err: err}
}

func Delivery(reason string) error {
	return &Error{Kind: KindDelivery, Reason: reason}
}

// KindOf reports the taxonomy kind of err, or ok=false for errors that did
// not originate in this package.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Reason returns the human-readable reason for taxonomy errors and a generic
// message otherwise, so driver details never leak to clients.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "internal error"
}
