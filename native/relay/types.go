package relay

import (
	"fmt"
	"math/big"
	"strings"

	"crosstrade/crypto"
)

// IDScheme selects how payment identifiers are derived.
type IDScheme uint8

const (
	// IDSchemeOffer keys payments by the originating offer:
	// keccak256(requestID, offerIndex, depositChainID).
	// The destination chain cannot see who made the offer, so the first payer
	// of a given offer takes the id and later payers get ErrPaymentExists.
	// The stored Sender tells observers who that was. Deployments that cannot
	// accept this select IDSchemeSenderNonce.
	IDSchemeOffer IDScheme = iota
	// IDSchemeSenderNonce keys payments by a per-sender counter:
	// keccak256(sender, nonce, chainID).
	IDSchemeSenderNonce
)

// ParseIDScheme maps a configuration string onto a scheme. Empty selects the
// offer scheme.
func ParseIDScheme(raw string) (IDScheme, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "offer":
		return IDSchemeOffer, nil
	case "sender-nonce", "sender_nonce":
		return IDSchemeSenderNonce, nil
	default:
		return 0, fmt.Errorf("relay: unknown payment id scheme %q", raw)
	}
}

func (s IDScheme) String() string {
	switch s {
	case IDSchemeOffer:
		return "offer"
	case IDSchemeSenderNonce:
		return "sender-nonce"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Payment is the immutable record of a transfer performed on the destination
// chain for a cross-chain offer.
type Payment struct {
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
	CreatedAt      int64
}

// Clone returns a deep copy of the payment.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// PaymentParams carries the caller-supplied fields of Pay.
type PaymentParams struct {
	RequestID      [32]byte
	OfferIndex     uint64
	DepositChainID uint64
	Token          [20]byte
	Recipient      [20]byte
	Amount         *big.Int
}

// OfferPaymentID derives the payment identifier under IDSchemeOffer.
func OfferPaymentID(requestID [32]byte, offerIndex, depositChainID uint64) [32]byte {
	return crypto.NewPacker().Hash(requestID).Uint64(offerIndex).Uint64(depositChainID).Sum()
}

// SenderPaymentID derives the payment identifier under IDSchemeSenderNonce.
func SenderPaymentID(sender [20]byte, nonce, chainID uint64) [32]byte {
	return crypto.NewPacker().Address(sender).Uint64(nonce).Uint64(chainID).Sum()
}
