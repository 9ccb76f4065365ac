package common

import (
	"math/big"

	protoerrors "crosstrade/core/errors"
)

// Call carries the authenticated caller of an operation and the native value
// attached to it.
type Call struct {
	Caller [20]byte
	Value  *big.Int
}

// NewCall builds a call without attached value.
func NewCall(caller [20]byte) Call {
	return Call{Caller: caller, Value: big.NewInt(0)}
}

// WithValue returns a copy of the call carrying the supplied native value.
func (c Call) WithValue(v *big.Int) Call {
	c.Value = CloneAmount(v)
	return c
}

// AttachedValue returns a non-nil copy of the attached value.
func (c Call) AttachedValue() *big.Int {
	return CloneAmount(c.Value)
}

// HasValue reports whether native value is attached.
func (c Call) HasValue() bool {
	return c.Value != nil && c.Value.Sign() > 0
}

// RequireNoValue rejects calls to operations that do not accept native value.
func RequireNoValue(c Call) error {
	if c.Value != nil && c.Value.Sign() != 0 {
		return protoerrors.ErrAmountMismatch
	}
	return nil
}

// RequirePositive validates that amount is strictly positive.
func RequirePositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return protoerrors.ErrInvalidAmount
	}
	return nil
}

// CloneAmount returns a copy of v, treating nil as zero.
func CloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
