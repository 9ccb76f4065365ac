package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"crosstrade/crypto"
)

// ParseAmount parses a non-negative base-10 integer.
func ParseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative: %s", raw)
	}
	return value, nil
}

// ParseWord parses a 0x-prefixed 32-byte hex word.
func ParseWord(raw string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(raw), "0x"), "0X")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid hex word %q: %w", raw, err)
	}
	if len(decoded) != 32 {
		return out, fmt.Errorf("hex word must be 32 bytes, got %d", len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

// ParseToken parses a token address; empty selects the native asset.
func ParseToken(raw string) ([20]byte, error) {
	if strings.TrimSpace(raw) == "" {
		return [20]byte{}, nil
	}
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return [20]byte{}, err
	}
	return addr, nil
}

// ReserveTokenAddress returns the parsed reserve token.
func (c Chain) ReserveTokenAddress() ([20]byte, error) {
	return ParseToken(c.ReserveToken)
}

// MinStakeAmount returns the parsed minimum stake.
func (p Protocol) MinStakeAmount() (*big.Int, error) {
	return ParseAmount(p.MinStake)
}

// MinQuestionFundingAmount returns the parsed minimum question bounty.
func (p Protocol) MinQuestionFundingAmount() (*big.Int, error) {
	return ParseAmount(p.MinQuestionFunding)
}

// ClaimAcceptedAnswerWord returns the parsed accepted answer.
func (p Protocol) ClaimAcceptedAnswerWord() ([32]byte, error) {
	return ParseWord(p.ClaimAcceptedAnswer)
}

// ParsedAllocation is a genesis allocation in runtime form.
type ParsedAllocation struct {
	Address [20]byte
	Token   [20]byte
	Amount  *big.Int
}

// Parse converts the allocations into runtime values.
func (g Genesis) Parse() ([]ParsedAllocation, error) {
	out := make([]ParsedAllocation, 0, len(g.Allocations))
	for i, alloc := range g.Allocations {
		addr, err := crypto.ParseAddress(alloc.Address)
		if err != nil {
			return nil, fmt.Errorf("genesis allocation %d: %w", i, err)
		}
		token, err := ParseToken(alloc.Token)
		if err != nil {
			return nil, fmt.Errorf("genesis allocation %d token: %w", i, err)
		}
		amount, err := ParseAmount(alloc.Amount)
		if err != nil {
			return nil, fmt.Errorf("genesis allocation %d: %w", i, err)
		}
		if amount.Sign() == 0 {
			return nil, fmt.Errorf("genesis allocation %d: amount must be positive", i)
		}
		out = append(out, ParsedAllocation{Address: addr, Token: token, Amount: amount})
	}
	return out, nil
}
