package rpc

import (
	"crosstrade/core"
	"crosstrade/native/escrow"
	"crosstrade/native/relay"
)

// RequestResult is the JSON view of an escrow request.
type RequestResult struct {
	ID               string        `json:"id"`
	Nonce            string        `json:"nonce"`
	Requester        string        `json:"requester"`
	DepositToken     string        `json:"depositToken"`
	DepositAmount    string        `json:"depositAmount"`
	DepositChainID   uint64        `json:"depositChainId"`
	RequestedToken   string        `json:"requestedToken"`
	RequestedAmount  string        `json:"requestedAmount"`
	RequestedChainID uint64        `json:"requestedChainId"`
	Recipient        string        `json:"recipient"`
	IsRequest        bool          `json:"isRequest"`
	Remaining        string        `json:"remaining"`
	Settled          bool          `json:"settled"`
	CreatedAt        int64         `json:"createdAt"`
	Offers           []OfferResult `json:"offers"`
}

// OfferResult is the JSON view of an offer.
type OfferResult struct {
	RequestID  string  `json:"requestId"`
	Index      uint64  `json:"index"`
	Creator    string  `json:"creator"`
	Amount     string  `json:"amount"`
	IsAccepted bool    `json:"isAccepted"`
	IsPaid     bool    `json:"isPaid"`
	Path       string  `json:"path"`
	QuestionID *string `json:"questionId,omitempty"`
	CreatedAt  int64   `json:"createdAt"`
	PaidAt     int64   `json:"paidAt,omitempty"`
}

// PaymentResult is the JSON view of a relay payment record.
type PaymentResult struct {
	ID             string `json:"id"`
	Token          string `json:"token"`
	Sender         string `json:"sender"`
	Receiver       string `json:"receiver"`
	Amount         string `json:"amount"`
	RequestID      string `json:"requestId"`
	OfferIndex     uint64 `json:"offerIndex"`
	DepositChainID uint64 `json:"depositChainId"`
	ChainID        uint64 `json:"chainId"`
	CreatedAt      int64  `json:"createdAt"`
}

// QuestionResult is the JSON view of an arbitration question.
type QuestionResult struct {
	ID           string `json:"id"`
	TemplateID   uint64 `json:"templateId"`
	Content      string `json:"content"`
	Asker        string `json:"asker"`
	Timeout      uint32 `json:"timeout"`
	OpeningTS    int64  `json:"openingTs"`
	Bounty       string `json:"bounty"`
	BestAnswer   string `json:"bestAnswer"`
	LastBond     string `json:"lastBond"`
	RequiredBond string `json:"requiredBond"`
	HistoryHash  string `json:"historyHash"`
	LastAnswerTS int64  `json:"lastAnswerTs"`
	AnswerCount  uint64 `json:"answerCount"`
	Finalized    bool   `json:"finalized"`
	Claimed      bool   `json:"claimed"`
	RequestID    string `json:"requestId,omitempty"`
	OfferIndex   uint64 `json:"offerIndex,omitempty"`
}

func requestResult(req *escrow.Request, offers []*escrow.Offer) RequestResult {
	out := RequestResult{
		ID:               formatHash(req.ID),
		Nonce:            formatAmount(req.Nonce),
		Requester:        formatAddress(req.Requester),
		DepositToken:     formatAddress(req.DepositToken),
		DepositAmount:    formatAmount(req.DepositAmount),
		DepositChainID:   req.DepositChainID,
		RequestedToken:   formatAddress(req.RequestedToken),
		RequestedAmount:  formatAmount(req.RequestedAmount),
		RequestedChainID: req.RequestedChainID,
		Recipient:        formatAddress(req.Recipient),
		IsRequest:        req.IsRequest,
		Remaining:        formatAmount(req.Remaining),
		Settled:          req.Settled,
		CreatedAt:        req.CreatedAt,
		Offers:           make([]OfferResult, 0, len(offers)),
	}
	for _, offer := range offers {
		out.Offers = append(out.Offers, offerResult(offer))
	}
	return out
}

func offerResult(o *escrow.Offer) OfferResult {
	out := OfferResult{
		RequestID:  formatHash(o.RequestID),
		Index:      o.Index,
		Creator:    formatAddress(o.Creator),
		Amount:     formatAmount(o.Amount),
		IsAccepted: o.IsAccepted,
		IsPaid:     o.IsPaid,
		Path:       o.Path.String(),
		CreatedAt:  o.CreatedAt,
		PaidAt:     o.PaidAt,
	}
	if o.Disputed() {
		id := formatHash(o.QuestionID)
		out.QuestionID = &id
	}
	return out
}

func paymentResult(p *relay.Payment) PaymentResult {
	return PaymentResult{
		ID:             formatHash(p.ID),
		Token:          formatAddress(p.Token),
		Sender:         formatAddress(p.Sender),
		Receiver:       formatAddress(p.Receiver),
		Amount:         formatAmount(p.Amount),
		RequestID:      formatHash(p.RequestID),
		OfferIndex:     p.OfferIndex,
		DepositChainID: p.DepositChainID,
		ChainID:        p.ChainID,
		CreatedAt:      p.CreatedAt,
	}
}

func questionResult(view *core.QuestionView) QuestionResult {
	q := view.Question
	out := QuestionResult{
		ID:           formatHash(q.ID),
		TemplateID:   q.TemplateID,
		Content:      q.Content,
		Asker:        formatAddress(q.Asker),
		Timeout:      q.Timeout,
		OpeningTS:    q.OpeningTS,
		Bounty:       formatAmount(q.Bounty),
		BestAnswer:   formatHash(q.BestAnswer),
		LastBond:     formatAmount(q.LastBond),
		RequiredBond: formatAmount(view.RequiredBond),
		HistoryHash:  formatHash(q.HistoryHash),
		LastAnswerTS: q.LastAnswerTS,
		AnswerCount:  q.AnswerCount,
		Finalized:    view.Finalized,
		Claimed:      q.Claimed,
	}
	if q.Context.RequestID != ([32]byte{}) {
		out.RequestID = formatHash(q.Context.RequestID)
		out.OfferIndex = q.Context.OfferIndex
	}
	return out
}
