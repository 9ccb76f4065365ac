package state

import (
	"fmt"
	"math/big"

	"crosstrade/native/arbitration"
)

type storedDisputeContext struct {
	Challenger         [20]byte
	Recipient          [20]byte
	Token              [20]byte
	Amount             *big.Int
	DestinationChainID uint64
	RequestID          [32]byte
	OfferIndex         uint64
	TxRef              string
}

type storedQuestion struct {
	ID           [32]byte
	TemplateID   uint64
	Content      string
	ContentHash  [32]byte
	Asker        [20]byte
	Timeout      uint64
	OpeningTS    uint64
	Nonce        uint64
	Bounty       *big.Int
	MinBond      *big.Int
	BestAnswer   [32]byte
	LastBond     *big.Int
	HistoryHash  [32]byte
	LastAnswerTS uint64
	AnswerCount  uint64
	Claimed      bool
	Context      storedDisputeContext
}

// QuestionPut stores an arbitration question.
func (m *Manager) QuestionPut(q *arbitration.Question) error {
	if q == nil {
		return fmt.Errorf("state: nil question")
	}
	return m.KVPut(QuestionKey(q.ID), &storedQuestion{
		ID:           q.ID,
		TemplateID:   q.TemplateID,
		Content:      q.Content,
		ContentHash:  q.ContentHash,
		Asker:        q.Asker,
		Timeout:      uint64(q.Timeout),
		OpeningTS:    toUint64(q.OpeningTS),
		Nonce:        q.Nonce,
		Bounty:       nonNil(q.Bounty),
		MinBond:      nonNil(q.MinBond),
		BestAnswer:   q.BestAnswer,
		LastBond:     nonNil(q.LastBond),
		HistoryHash:  q.HistoryHash,
		LastAnswerTS: toUint64(q.LastAnswerTS),
		AnswerCount:  q.AnswerCount,
		Claimed:      q.Claimed,
		Context: storedDisputeContext{
			Challenger:         q.Context.Challenger,
			Recipient:          q.Context.Recipient,
			Token:              q.Context.Token,
			Amount:             nonNil(q.Context.Amount),
			DestinationChainID: q.Context.DestinationChainID,
			RequestID:          q.Context.RequestID,
			OfferIndex:         q.Context.OfferIndex,
			TxRef:              q.Context.TxRef,
		},
	})
}

// QuestionGet loads an arbitration question.
func (m *Manager) QuestionGet(id [32]byte) (*arbitration.Question, bool, error) {
	var stored storedQuestion
	ok, err := m.KVGet(QuestionKey(id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	if stored.Timeout > uint64(^uint32(0)) {
		return nil, false, fmt.Errorf("state: question timeout overflow: %d", stored.Timeout)
	}
	return &arbitration.Question{
		ID:           stored.ID,
		TemplateID:   stored.TemplateID,
		Content:      stored.Content,
		ContentHash:  stored.ContentHash,
		Asker:        stored.Asker,
		Timeout:      uint32(stored.Timeout),
		OpeningTS:    int64(stored.OpeningTS),
		Nonce:        stored.Nonce,
		Bounty:       nonNil(stored.Bounty),
		MinBond:      nonNil(stored.MinBond),
		BestAnswer:   stored.BestAnswer,
		LastBond:     nonNil(stored.LastBond),
		HistoryHash:  stored.HistoryHash,
		LastAnswerTS: int64(stored.LastAnswerTS),
		AnswerCount:  stored.AnswerCount,
		Claimed:      stored.Claimed,
		Context: arbitration.DisputeContext{
			Challenger:         stored.Context.Challenger,
			Recipient:          stored.Context.Recipient,
			Token:              stored.Context.Token,
			Amount:             nonNil(stored.Context.Amount),
			DestinationChainID: stored.Context.DestinationChainID,
			RequestID:          stored.Context.RequestID,
			OfferIndex:         stored.Context.OfferIndex,
			TxRef:              stored.Context.TxRef,
		},
	}, true, nil
}

// QuestionNextNonce returns and advances the oracle's question counter.
func (m *Manager) QuestionNextNonce() (uint64, error) {
	var nonce uint64
	if _, err := m.KVGet(questionNonceKey, &nonce); err != nil {
		return 0, err
	}
	if err := m.KVPut(questionNonceKey, nonce+1); err != nil {
		return 0, err
	}
	return nonce, nil
}
