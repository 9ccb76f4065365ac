package escrow

import (
	"math/big"
	"strconv"

	"crosstrade/core/events"
	"crosstrade/core/types"
)

const (
	EventTypeDepositCreated      = "escrow.deposit.created"
	EventTypeRequestCreated      = "escrow.request.created"
	EventTypeOfferCreated        = "escrow.offer.created"
	EventTypeOfferAccepted       = "escrow.offer.accepted"
	EventTypeOfferRejected       = "escrow.offer.rejected"
	EventTypeOfferPaidOnChain    = "escrow.offer.paid_onchain"
	EventTypeOfferPaidCrossChain = "escrow.offer.paid_crosschain"
	EventTypeOfferDisputed       = "escrow.offer.disputed"
	EventTypeDepositWithdrawn    = "escrow.deposit.withdrawn"
)

// NewDepositCreatedEvent returns the payload describing the escrowed deposit.
func NewDepositCreatedEvent(r *Request) *types.Event {
	return &types.Event{
		Type: EventTypeDepositCreated,
		Attributes: map[string]string{
			"requestId":      events.FormatHash(r.ID),
			"requester":      events.FormatAddress(r.Requester),
			"depositToken":   events.FormatAddress(r.DepositToken),
			"depositAmount":  events.FormatAmount(r.DepositAmount),
			"depositChainId": strconv.FormatUint(r.DepositChainID, 10),
		},
	}
}

// NewRequestCreatedEvent returns the payload describing what the requester
// asks for.
func NewRequestCreatedEvent(r *Request) *types.Event {
	return &types.Event{
		Type: EventTypeRequestCreated,
		Attributes: map[string]string{
			"requestId":        events.FormatHash(r.ID),
			"nonce":            events.FormatAmount(r.Nonce),
			"requester":        events.FormatAddress(r.Requester),
			"requestedToken":   events.FormatAddress(r.RequestedToken),
			"requestedAmount":  events.FormatAmount(r.RequestedAmount),
			"requestedChainId": strconv.FormatUint(r.RequestedChainID, 10),
			"recipient":        events.FormatAddress(r.Recipient),
		},
	}
}

// NewOfferCreatedEvent returns the payload emitted for a new offer.
func NewOfferCreatedEvent(o *Offer) *types.Event {
	return newOfferEvent(EventTypeOfferCreated, o, nil)
}

// NewOfferAcceptedEvent returns the payload emitted when an offer is accepted.
func NewOfferAcceptedEvent(o *Offer) *types.Event {
	return newOfferEvent(EventTypeOfferAccepted, o, nil)
}

// NewOfferRejectedEvent returns the payload emitted when an acceptance is
// withdrawn.
func NewOfferRejectedEvent(o *Offer) *types.Event {
	return newOfferEvent(EventTypeOfferRejected, o, nil)
}

// NewOfferDisputedEvent returns the payload emitted when a question is
// attached to an offer.
func NewOfferDisputedEvent(o *Offer) *types.Event {
	return newOfferEvent(EventTypeOfferDisputed, o, map[string]string{
		"questionId": events.FormatHash(o.QuestionID),
	})
}

// NewOfferPaidOnChainEvent returns the payload emitted after an on-chain
// settlement.
func NewOfferPaidOnChainEvent(r *Request, o *Offer, reward *big.Int) *types.Event {
	return newOfferEvent(EventTypeOfferPaidOnChain, o, paidAttributes(r, reward))
}

// NewOfferPaidCrossChainEvent returns the payload emitted after a cross-chain
// claim, disputed or not.
func NewOfferPaidCrossChainEvent(r *Request, o *Offer, reward *big.Int) *types.Event {
	extra := paidAttributes(r, reward)
	if o.Disputed() {
		extra["questionId"] = events.FormatHash(o.QuestionID)
	}
	return newOfferEvent(EventTypeOfferPaidCrossChain, o, extra)
}

// NewDepositWithdrawnEvent returns the payload emitted when the requester
// recovers the remaining deposit.
func NewDepositWithdrawnEvent(r *Request, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDepositWithdrawn,
		Attributes: map[string]string{
			"requestId":    events.FormatHash(r.ID),
			"requester":    events.FormatAddress(r.Requester),
			"depositToken": events.FormatAddress(r.DepositToken),
			"amount":       events.FormatAmount(amount),
		},
	}
}

func paidAttributes(r *Request, reward *big.Int) map[string]string {
	return map[string]string{
		"recipient":      events.FormatAddress(r.Recipient),
		"requestedToken": events.FormatAddress(r.RequestedToken),
		"reward":         events.FormatAmount(reward),
		"remaining":      events.FormatAmount(r.Remaining),
	}
}

func newOfferEvent(eventType string, o *Offer, extra map[string]string) *types.Event {
	attrs := map[string]string{
		"requestId":  events.FormatHash(o.RequestID),
		"offerIndex": strconv.FormatUint(o.Index, 10),
		"creator":    events.FormatAddress(o.Creator),
		"amount":     events.FormatAmount(o.Amount),
		"path":       o.Path.String(),
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
