package review

import (
	"errors"
	"fmt"
)

// Kind classifies failures of one poll cycle.
type Kind int

const (
	KindUnknown Kind = iota
	KindEndpointUnavailable
	KindTypeMismatch
	KindMissingAPIKeys
	KindMissingItemName
	KindUnrecognizedStatus
	KindDeliveryFailed
)

func (k Kind) String() string {
	switch k {
	case KindEndpointUnavailable:
		return "endpoint_unavailable"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindMissingAPIKeys:
		return "missing_api_keys"
	case KindMissingItemName:
		return "missing_item_name"
	case KindUnrecognizedStatus:
		return "unrecognized_status"
	case KindDeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}

// Notifies reports whether failures of this kind are relayed to the chat.
func (k Kind) Notifies() bool {
	return k == KindMissingAPIKeys || k == KindUnrecognizedStatus
}

// Error is the single error type for classified failures.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	prefix := kindTitle[e.Kind]
	if prefix == "" {
		prefix = e.Kind.String()
	}
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Detail, e.Err)
	case e.Detail != "":
		return prefix + ": " + e.Detail
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	default:
		return prefix
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrMissingAPIKeys) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Detail == "" && t.Err == nil
}

// Notice renders the text sent to the chat for notifying kinds.
// It is the only place error values become message text.
func (e *Error) Notice() string {
	switch e.Kind {
	case KindMissingAPIKeys:
		return "Missing expected keys in API response."
	case KindUnrecognizedStatus:
		if e.Detail == "" {
			return "Unexpected review status."
		}
		return "Unexpected review status: " + e.Detail + "."
	default:
		return e.Error()
	}
}

var kindTitle = map[Kind]string{
	KindEndpointUnavailable: "endpoint unavailable",
	KindTypeMismatch:        "type mismatch",
	KindMissingAPIKeys:      "missing api keys",
	KindMissingItemName:     "missing item name",
	KindUnrecognizedStatus:  "unrecognized status",
	KindDeliveryFailed:      "delivery failed",
}

// Sentinels for errors.Is.
var (
	ErrEndpointUnavailable = &Error{Kind: KindEndpointUnavailable}
	ErrTypeMismatch        = &Error{Kind: KindTypeMismatch}
	ErrMissingAPIKeys      = &Error{Kind: KindMissingAPIKeys}
	ErrMissingItemName     = &Error{Kind: KindMissingItemName}
	ErrUnrecognizedStatus  = &Error{Kind: KindUnrecognizedStatus}
	ErrDeliveryFailed      = &Error{Kind: KindDeliveryFailed}
)

func EndpointUnavailable(detail string, err error) error {
	return &Error{Kind: KindEndpointUnavailable, Detail: detail, Err: err}
}

func TypeMismatch(detail string) error {
	return &Error{Kind: KindTypeMismatch, Detail: detail}
}

func DeliveryFailed(err error) error {
	return &Error{Kind: KindDeliveryFailed, Err: err}
}

// KindOf classifies err. Unclassified errors (including nil) are KindUnknown.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// AsError returns the classified *Error inside err, if any.
func AsError(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
