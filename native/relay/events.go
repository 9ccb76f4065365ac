package relay

import (
	"strconv"

	"crosstrade/core/events"
	"crosstrade/core/types"
)

const EventTypePaymentRecorded = "relay.payment.recorded"

// NewPaymentRecordedEvent returns the payload emitted once a payment lands.
func NewPaymentRecordedEvent(p *Payment) *types.Event {
	return &types.Event{
		Type: EventTypePaymentRecorded,
		Attributes: map[string]string{
			"paymentId":      events.FormatHash(p.ID),
			"token":          events.FormatAddress(p.Token),
			"sender":         events.FormatAddress(p.Sender),
			"receiver":       events.FormatAddress(p.Receiver),
			"amount":         events.FormatAmount(p.Amount),
			"requestId":      events.FormatHash(p.RequestID),
			"offerIndex":     strconv.FormatUint(p.OfferIndex, 10),
			"depositChainId": strconv.FormatUint(p.DepositChainID, 10),
			"chainId":        strconv.FormatUint(p.ChainID, 10),
			"nonce":          strconv.FormatUint(p.Nonce, 10),
		},
	}
}
