package arbitration

import (
	"math/big"
	"strconv"

	"crosstrade/core/events"
	"crosstrade/core/types"
)

const (
	EventTypeQuestionAsked   = "arbitration.question.asked"
	EventTypeAnswerSubmitted = "arbitration.answer.submitted"
	EventTypeWinningsClaimed = "arbitration.winnings.claimed"
)

// NewQuestionAskedEvent returns the payload emitted when a question opens.
func NewQuestionAskedEvent(q *Question) *types.Event {
	attrs := map[string]string{
		"questionId": events.FormatHash(q.ID),
		"templateId": strconv.FormatUint(q.TemplateID, 10),
		"asker":      events.FormatAddress(q.Asker),
		"timeout":    strconv.FormatUint(uint64(q.Timeout), 10),
		"openingTs":  strconv.FormatInt(q.OpeningTS, 10),
		"bounty":     events.FormatAmount(q.Bounty),
		"content":    q.Content,
	}
	if q.Context.RequestID != ([32]byte{}) {
		attrs["requestId"] = events.FormatHash(q.Context.RequestID)
		attrs["offerIndex"] = strconv.FormatUint(q.Context.OfferIndex, 10)
		attrs["challenger"] = events.FormatAddress(q.Context.Challenger)
		attrs["recipient"] = events.FormatAddress(q.Context.Recipient)
		attrs["token"] = events.FormatAddress(q.Context.Token)
		attrs["amount"] = events.FormatAmount(q.Context.Amount)
		attrs["destinationChainId"] = strconv.FormatUint(q.Context.DestinationChainID, 10)
	}
	if q.Context.TxRef != "" {
		attrs["txRef"] = q.Context.TxRef
	}
	return &types.Event{Type: EventTypeQuestionAsked, Attributes: attrs}
}

// NewAnswerSubmittedEvent returns the payload emitted for an accepted answer.
// The attributes carry everything a claimant needs to replay the history.
func NewAnswerSubmittedEvent(q *Question, prev, answer [32]byte, bond *big.Int, answerer [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeAnswerSubmitted,
		Attributes: map[string]string{
			"questionId":  events.FormatHash(q.ID),
			"answer":      events.FormatHash(answer),
			"bond":        events.FormatAmount(bond),
			"answerer":    events.FormatAddress(answerer),
			"historyPrev": events.FormatHash(prev),
			"historyHash": events.FormatHash(q.HistoryHash),
			"timestamp":   strconv.FormatInt(q.LastAnswerTS, 10),
		},
	}
}

// NewWinningsClaimedEvent returns the payload emitted once a question pays out.
func NewWinningsClaimedEvent(q *Question, final [32]byte, total *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeWinningsClaimed,
		Attributes: map[string]string{
			"questionId":  events.FormatHash(q.ID),
			"finalAnswer": events.FormatHash(final),
			"paid":        events.FormatAmount(total),
		},
	}
}
