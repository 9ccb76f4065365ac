package state

import (
	"fmt"
	"math/big"

	"crosstrade/native/escrow"
)

type storedRequest struct {
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
	Remaining        *big.Int
	OfferCount       uint64
	HasAccepted      bool
	AcceptedIndex    uint64
	Settled          bool
	CreatedAt        uint64
}

func newStoredRequest(r *escrow.Request) *storedRequest {
	return &storedRequest{
		ID:               r.ID,
		Nonce:            nonNil(r.Nonce),
		Requester:        r.Requester,
		DepositToken:     r.DepositToken,
		DepositAmount:    nonNil(r.DepositAmount),
		DepositChainID:   r.DepositChainID,
		RequestedToken:   r.RequestedToken,
		RequestedAmount:  nonNil(r.RequestedAmount),
		RequestedChainID: r.RequestedChainID,
		Recipient:        r.Recipient,
		IsRequest:        r.IsRequest,
		Remaining:        nonNil(r.Remaining),
		OfferCount:       r.OfferCount,
		HasAccepted:      r.HasAccepted,
		AcceptedIndex:    r.AcceptedIndex,
		Settled:          r.Settled,
		CreatedAt:        toUint64(r.CreatedAt),
	}
}

func (s *storedRequest) toRequest() *escrow.Request {
	return &escrow.Request{
		ID:               s.ID,
		Nonce:            nonNil(s.Nonce),
		Requester:        s.Requester,
		DepositToken:     s.DepositToken,
		DepositAmount:    nonNil(s.DepositAmount),
		DepositChainID:   s.DepositChainID,
		RequestedToken:   s.RequestedToken,
		RequestedAmount:  nonNil(s.RequestedAmount),
		RequestedChainID: s.RequestedChainID,
		Recipient:        s.Recipient,
		IsRequest:        s.IsRequest,
		Remaining:        nonNil(s.Remaining),
		OfferCount:       s.OfferCount,
		HasAccepted:      s.HasAccepted,
		AcceptedIndex:    s.AcceptedIndex,
		Settled:          s.Settled,
		CreatedAt:        int64(s.CreatedAt),
	}
}

type storedOffer struct {
	RequestID  [32]byte
	Index      uint64
	Creator    [20]byte
	Amount     *big.Int
	IsAccepted bool
	IsPaid     bool
	Path       uint64
	QuestionID [32]byte
	CreatedAt  uint64
	PaidAt     uint64
}

func newStoredOffer(o *escrow.Offer) *storedOffer {
	return &storedOffer{
		RequestID:  o.RequestID,
		Index:      o.Index,
		Creator:    o.Creator,
		Amount:     nonNil(o.Amount),
		IsAccepted: o.IsAccepted,
		IsPaid:     o.IsPaid,
		Path:       uint64(o.Path),
		QuestionID: o.QuestionID,
		CreatedAt:  toUint64(o.CreatedAt),
		PaidAt:     toUint64(o.PaidAt),
	}
}

func (s *storedOffer) toOffer() (*escrow.Offer, error) {
	path := escrow.ClaimPath(s.Path)
	if s.Path > 0xff || !path.Valid() {
		return nil, fmt.Errorf("state: invalid claim path %d", s.Path)
	}
	return &escrow.Offer{
		RequestID:  s.RequestID,
		Index:      s.Index,
		Creator:    s.Creator,
		Amount:     nonNil(s.Amount),
		IsAccepted: s.IsAccepted,
		IsPaid:     s.IsPaid,
		Path:       path,
		QuestionID: s.QuestionID,
		CreatedAt:  int64(s.CreatedAt),
		PaidAt:     int64(s.PaidAt),
	}, nil
}

// EscrowRequestPut stores the request record.
func (m *Manager) EscrowRequestPut(r *escrow.Request) error {
	if r == nil {
		return fmt.Errorf("state: nil request")
	}
	return m.KVPut(EscrowRequestKey(r.ID), newStoredRequest(r))
}

// EscrowRequestGet loads a request record.
func (m *Manager) EscrowRequestGet(id [32]byte) (*escrow.Request, bool, error) {
	var stored storedRequest
	ok, err := m.KVGet(EscrowRequestKey(id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return stored.toRequest(), true, nil
}

// EscrowNonceUsed reports whether requester already consumed nonce.
func (m *Manager) EscrowNonceUsed(requester [20]byte, nonce *big.Int) (bool, error) {
	return m.KVHas(EscrowNonceKey(requester, nonceWord(nonce)))
}

// EscrowMarkNonce records the (requester, nonce) pair as used and indexes the
// request under its requester.
func (m *Manager) EscrowMarkNonce(requester [20]byte, nonce *big.Int, requestID [32]byte) error {
	if err := m.KVPut(EscrowNonceKey(requester, nonceWord(nonce)), requestID); err != nil {
		return err
	}
	return m.KVAppend(escrowRequesterIndexKey(requester), requestID[:])
}

// EscrowRequestsOf lists the request ids created by requester in creation order.
func (m *Manager) EscrowRequestsOf(requester [20]byte) ([][32]byte, error) {
	var raw [][]byte
	if err := m.KVGetList(escrowRequesterIndexKey(requester), &raw); err != nil {
		return nil, err
	}
	out := make([][32]byte, 0, len(raw))
	for _, entry := range raw {
		var id [32]byte
		copy(id[:], entry)
		out = append(out, id)
	}
	return out, nil
}

// EscrowOfferPut stores the offer record.
func (m *Manager) EscrowOfferPut(o *escrow.Offer) error {
	if o == nil {
		return fmt.Errorf("state: nil offer")
	}
	return m.KVPut(EscrowOfferKey(o.RequestID, o.Index), newStoredOffer(o))
}

// EscrowOfferGet loads an offer record.
func (m *Manager) EscrowOfferGet(requestID [32]byte, index uint64) (*escrow.Offer, bool, error) {
	var stored storedOffer
	ok, err := m.KVGet(EscrowOfferKey(requestID, index), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	offer, err := stored.toOffer()
	if err != nil {
		return nil, false, err
	}
	return offer, true, nil
}

func nonceWord(nonce *big.Int) [32]byte {
	var out [32]byte
	if nonce != nil && nonce.Sign() > 0 {
		nonce.FillBytes(out[:])
	}
	return out
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func toUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}
