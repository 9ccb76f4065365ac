package errors

import stderrors "errors"

// Kind groups protocol failures so integrators can branch on the class of a
// failure without matching individual sentinels.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindUnauthorized
	KindInvalidState
	KindInsufficientFunds
	KindAmountMismatch
	KindHistoryMismatch
	KindWrongChain
	KindInvalid
)

var kindNames = map[Kind]string{
	KindUnknown:           "Unknown",
	KindNotFound:          "NotFound",
	KindAlreadyExists:     "AlreadyExists",
	KindUnauthorized:      "Unauthorized",
	KindInvalidState:      "InvalidState",
	KindInsufficientFunds: "InsufficientFunds",
	KindAmountMismatch:    "AmountMismatch",
	KindHistoryMismatch:   "HistoryMismatch",
	KindWrongChain:        "WrongChain",
	KindInvalid:           "Invalid",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Error is a protocol failure carrying a kind and a stable reason code.
type Error struct {
	kind Kind
	code string
	msg  string
}

// New declares a protocol error. Declared values are used as sentinels and
// compared with errors.Is.
func New(kind Kind, code, msg string) *Error {
	return &Error{kind: kind, code: code, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the failure class.
func (e *Error) Kind() Kind { return e.kind }

// Code returns the stable reason code, e.g. "AlreadyPaid".
func (e *Error) Code() string { return e.code }

// KindOf unwraps err and returns the kind of the first protocol error found.
func KindOf(err error) Kind {
	var protoErr *Error
	if stderrors.As(err, &protoErr) {
		return protoErr.kind
	}
	return KindUnknown
}

// CodeOf unwraps err and returns the reason code of the first protocol error
// found, or an empty string.
func CodeOf(err error) string {
	var protoErr *Error
	if stderrors.As(err, &protoErr) {
		return protoErr.code
	}
	return ""
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }
