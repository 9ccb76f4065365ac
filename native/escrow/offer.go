package escrow

import (
	"fmt"
	"math/big"

	protoerrors "crosstrade/core/errors"
	"crosstrade/native/common"
	"crosstrade/observability/metrics"
)

// CreateOffer appends an offer to the request. The caller's stake, in the
// scope of the requested chain, must reach the protocol minimum.
func (e *Engine) CreateOffer(call common.Call, requestID [32]byte, amount *big.Int) (uint64, error) {
	if err := e.begin(call, false); err != nil {
		return 0, err
	}
	if err := common.RequirePositive(amount); err != nil {
		return 0, err
	}
	req, err := e.loadRequest(requestID)
	if err != nil {
		return 0, err
	}
	if req.Settled {
		return 0, protoerrors.ErrRequestSettled
	}
	if e.stakes == nil {
		return 0, fmt.Errorf("%w: collateral ledger", protoerrors.ErrNotConfigured)
	}
	stake, err := e.stakes.StakeOf(call.Caller, req.RequestedChainID)
	if err != nil {
		return 0, err
	}
	if stake.Cmp(e.params.MinStake) < 0 {
		return 0, fmt.Errorf("%w: have %s, need %s", protoerrors.ErrInsufficientStake, stake, e.params.MinStake)
	}
	offer := &Offer{
		RequestID: requestID,
		Index:     req.OfferCount,
		Creator:   call.Caller,
		Amount:    new(big.Int).Set(amount),
		CreatedAt: e.now(),
	}
	req.OfferCount++
	if err := e.state.EscrowOfferPut(offer); err != nil {
		return 0, err
	}
	if err := e.state.EscrowRequestPut(req); err != nil {
		return 0, err
	}
	e.emit(NewOfferCreatedEvent(offer))
	metrics.Escrow().RecordOffer()
	return offer.Index, nil
}

// AcceptOffer marks the offer accepted. At most one offer of a request is
// accepted at a time.
func (e *Engine) AcceptOffer(call common.Call, requestID [32]byte, index uint64) error {
	if err := e.begin(call, false); err != nil {
		return err
	}
	req, err := e.loadRequest(requestID)
	if err != nil {
		return err
	}
	if req.Requester != call.Caller {
		return protoerrors.ErrNotRequester
	}
	_, offer, err := e.loadOffer(requestID, index)
	if err != nil {
		return err
	}
	if offer.IsAccepted {
		return protoerrors.ErrAlreadyAccepted
	}
	if req.HasAccepted {
		return fmt.Errorf("%w: offer %d", protoerrors.ErrOfferAlreadyExistsForRequest, req.AcceptedIndex)
	}
	offer.IsAccepted = true
	req.HasAccepted = true
	req.AcceptedIndex = index
	if err := e.state.EscrowOfferPut(offer); err != nil {
		return err
	}
	if err := e.state.EscrowRequestPut(req); err != nil {
		return err
	}
	e.emit(NewOfferAcceptedEvent(offer))
	metrics.Escrow().RecordOfferTransition("accept")
	return nil
}

// RejectOffer withdraws the acceptance of an unpaid offer so another offer can
// be accepted. A disputed offer can be rejected only once its question has
// finalized to an answer other than the claim-accepted one.
func (e *Engine) RejectOffer(call common.Call, requestID [32]byte, index uint64) error {
	if err := e.begin(call, false); err != nil {
		return err
	}
	req, err := e.loadRequest(requestID)
	if err != nil {
		return err
	}
	if req.Requester != call.Caller {
		return protoerrors.ErrNotRequester
	}
	_, offer, err := e.loadOffer(requestID, index)
	if err != nil {
		return err
	}
	if !offer.IsAccepted {
		return protoerrors.ErrNotAccepted
	}
	if offer.IsPaid {
		return protoerrors.ErrAlreadyPaid
	}
	if offer.Disputed() {
		lost, err := e.disputeLost(offer.QuestionID)
		if err != nil {
			return err
		}
		if !lost {
			return protoerrors.ErrDisputed
		}
		offer.Path = ClaimPathNone
		offer.QuestionID = [32]byte{}
	}
	offer.IsAccepted = false
	req.HasAccepted = false
	req.AcceptedIndex = 0
	if err := e.state.EscrowOfferPut(offer); err != nil {
		return err
	}
	if err := e.state.EscrowRequestPut(req); err != nil {
		return err
	}
	e.emit(NewOfferRejectedEvent(offer))
	metrics.Escrow().RecordOfferTransition("reject")
	return nil
}

// Offer returns a copy of the stored offer.
func (e *Engine) Offer(requestID [32]byte, index uint64) (*Offer, error) {
	_, offer, err := e.loadOffer(requestID, index)
	if err != nil {
		return nil, err
	}
	return offer.Clone(), nil
}

// Offers returns every offer of the request in index order.
func (e *Engine) Offers(requestID [32]byte) ([]*Offer, error) {
	req, err := e.loadRequest(requestID)
	if err != nil {
		return nil, err
	}
	out := make([]*Offer, 0, req.OfferCount)
	for i := uint64(0); i < req.OfferCount; i++ {
		_, offer, err := e.loadOffer(requestID, i)
		if err != nil {
			return nil, err
		}
		out = append(out, offer)
	}
	return out, nil
}

// OfferCount returns the number of offers made on the request.
func (e *Engine) OfferCount(requestID [32]byte) (uint64, error) {
	req, err := e.loadRequest(requestID)
	if err != nil {
		return 0, err
	}
	return req.OfferCount, nil
}

// IsAccepted reports whether the offer is currently accepted.
func (e *Engine) IsAccepted(requestID [32]byte, index uint64) (bool, error) {
	_, offer, err := e.loadOffer(requestID, index)
	if err != nil {
		return false, err
	}
	return offer.IsAccepted, nil
}

// IsPaid reports whether the offer has been settled.
func (e *Engine) IsPaid(requestID [32]byte, index uint64) (bool, error) {
	_, offer, err := e.loadOffer(requestID, index)
	if err != nil {
		return false, err
	}
	return offer.IsPaid, nil
}
