package state

import (
	"fmt"
	"math/big"

	"crosstrade/native/relay"
)

type storedPayment struct {
	ID             [32]byte
	Token          [20]byte
	Sender         [20]byte
	Receiver       [20]byte
	Amount         *big.Int
	RequestID      [32]byte
	OfferIndex     uint64
	DepositChainID uint64
	ChainID        uint64
	Nonce          uint64
	CreatedAt      uint64
}

// RelayPaymentPut stores an immutable payment record.
func (m *Manager) RelayPaymentPut(p *relay.Payment) error {
	if p == nil {
		return fmt.Errorf("state: nil payment")
	}
	return m.KVPut(RelayPaymentKey(p.ID), &storedPayment{
		ID:             p.ID,
		Token:          p.Token,
		Sender:         p.Sender,
		Receiver:       p.Receiver,
		Amount:         nonNil(p.Amount),
		RequestID:      p.RequestID,
		OfferIndex:     p.OfferIndex,
		DepositChainID: p.DepositChainID,
		ChainID:        p.ChainID,
		Nonce:          p.Nonce,
		CreatedAt:      toUint64(p.CreatedAt),
	})
}

// RelayPaymentGet loads a payment record.
func (m *Manager) RelayPaymentGet(id [32]byte) (*relay.Payment, bool, error) {
	var stored storedPayment
	ok, err := m.KVGet(RelayPaymentKey(id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &relay.Payment{
		ID:             stored.ID,
		Token:          stored.Token,
		Sender:         stored.Sender,
		Receiver:       stored.Receiver,
		Amount:         nonNil(stored.Amount),
		RequestID:      stored.RequestID,
		OfferIndex:     stored.OfferIndex,
		DepositChainID: stored.DepositChainID,
		ChainID:        stored.ChainID,
		Nonce:          stored.Nonce,
		CreatedAt:      int64(stored.CreatedAt),
	}, true, nil
}

// RelayNonce returns the next payment nonce of sender.
func (m *Manager) RelayNonce(sender [20]byte) (uint64, error) {
	var nonce uint64
	if _, err := m.KVGet(relayNonceKey(sender), &nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

// SetRelayNonce stores the next payment nonce of sender.
func (m *Manager) SetRelayNonce(sender [20]byte, nonce uint64) error {
	return m.KVPut(relayNonceKey(sender), nonce)
}
