package escrow

import (
	"fmt"
	"math/big"

	protoerrors "crosstrade/core/errors"
	"crosstrade/crypto"
	"crosstrade/native/bank"
)

// ClaimPath records how an offer was, or is being, settled.
type ClaimPath uint8

const (
	ClaimPathNone ClaimPath = iota
	ClaimPathOnChain
	ClaimPathCrossChainTrusted
	ClaimPathCrossChainDisputed
)

// Valid reports whether the path value is within the supported range.
func (p ClaimPath) Valid() bool {
	switch p {
	case ClaimPathNone, ClaimPathOnChain, ClaimPathCrossChainTrusted, ClaimPathCrossChainDisputed:
		return true
	default:
		return false
	}
}

func (p ClaimPath) String() string {
	switch p {
	case ClaimPathNone:
		return "none"
	case ClaimPathOnChain:
		return "onchain"
	case ClaimPathCrossChainTrusted:
		return "crosschain_trusted"
	case ClaimPathCrossChainDisputed:
		return "crosschain_disputed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// Request is a deposit paired with a request for a counter-asset. The
// identifier is the keccak256 of the packed request fields, see RequestID.
type Request struct {
	ID               [32]byte
	Nonce            *big.Int
	Requester        [20]byte
	DepositToken     [20]byte
	DepositAmount    *big.Int
	DepositChainID   uint64
	RequestedToken   [20]byte
	RequestedAmount  *big.Int
	RequestedChainID uint64
	Recipient        [20]byte
	IsRequest        bool
	// Remaining is the part of the deposit still held in escrow.
	Remaining     *big.Int
	OfferCount    uint64
	HasAccepted   bool
	AcceptedIndex uint64
	Settled       bool
	CreatedAt     int64
}

// DepositAsset returns the asset reference of the deposit.
func (r *Request) DepositAsset() bank.AssetRef { return bank.AssetOf(r.DepositToken) }

// RequestedAsset returns the asset reference of the requested counter-asset.
func (r *Request) RequestedAsset() bank.AssetRef { return bank.AssetOf(r.RequestedToken) }

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Nonce = cloneBigInt(r.Nonce)
	clone.DepositAmount = cloneBigInt(r.DepositAmount)
	clone.RequestedAmount = cloneBigInt(r.RequestedAmount)
	clone.Remaining = cloneBigInt(r.Remaining)
	return &clone
}

// Offer is a staked counterparty's proposal to fulfil a request.
type Offer struct {
	RequestID  [32]byte
	Index      uint64
	Creator    [20]byte
	Amount     *big.Int
	IsAccepted bool
	IsPaid     bool
	Path       ClaimPath
	QuestionID [32]byte
	CreatedAt  int64
	PaidAt     int64
}

// Disputed reports whether an arbitration question is attached to the offer.
func (o *Offer) Disputed() bool {
	return o != nil && o.Path == ClaimPathCrossChainDisputed
}

// Clone returns a deep copy of the offer.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Amount = cloneBigInt(o.Amount)
	return &clone
}

// RequestParams carries the caller-supplied fields of DepositAndRequest. The
// requester and the deposit chain are taken from the call context.
type RequestParams struct {
	Nonce            *big.Int
	DepositToken     [20]byte
	DepositAmount    *big.Int
	RequestedToken   [20]byte
	RequestedAmount  *big.Int
	RequestedChainID uint64
	Recipient        [20]byte
}

// DisputeParams carries the question template used when a requester disputes a
// cross-chain claim.
type DisputeParams struct {
	TemplateID uint64
	Content    string
	TxRef      string
}

// RequestID derives the canonical request identifier. Field order:
// nonce, requester, depositToken, depositAmount, depositChainID,
// requestedToken, requestedAmount, requestedChainID, recipient.
func RequestID(nonce *big.Int, requester, depositToken [20]byte, depositAmount *big.Int, depositChainID uint64, requestedToken [20]byte, requestedAmount *big.Int, requestedChainID uint64, recipient [20]byte) [32]byte {
	return crypto.NewPacker().
		Big(nonce).
		Address(requester).
		Address(depositToken).
		Big(depositAmount).
		Uint64(depositChainID).
		Address(requestedToken).
		Big(requestedAmount).
		Uint64(requestedChainID).
		Address(recipient).
		Sum()
}

// SanitizeRequestParams validates the supplied parameters, returning a copy
// with non-nil amounts.
func SanitizeRequestParams(p RequestParams) (RequestParams, error) {
	out := p
	out.Nonce = cloneBigInt(p.Nonce)
	out.DepositAmount = cloneBigInt(p.DepositAmount)
	out.RequestedAmount = cloneBigInt(p.RequestedAmount)
	if !crypto.FitsUint256(out.Nonce) {
		return RequestParams{}, fmt.Errorf("%w: nonce out of range", protoerrors.ErrInvalidAmount)
	}
	if out.DepositAmount.Sign() <= 0 || !crypto.FitsUint256(out.DepositAmount) {
		return RequestParams{}, fmt.Errorf("%w: deposit amount", protoerrors.ErrInvalidAmount)
	}
	if out.RequestedAmount.Sign() <= 0 || !crypto.FitsUint256(out.RequestedAmount) {
		return RequestParams{}, fmt.Errorf("%w: requested amount", protoerrors.ErrInvalidAmount)
	}
	if out.Recipient == ([20]byte{}) {
		return RequestParams{}, fmt.Errorf("%w: recipient", protoerrors.ErrZeroAddress)
	}
	return out, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
