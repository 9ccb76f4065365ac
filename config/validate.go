package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Chain.ChainID == 0 {
		return fmt.Errorf("chain: ChainID must be set")
	}
	if _, err := c.Chain.ReserveTokenAddress(); err != nil {
		return fmt.Errorf("chain: ReserveToken: %w", err)
	}
	if err := c.Protocol.Validate(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case "memory":
	case "leveldb", "bolt":
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage: Path required for backend %s", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	if c.RPC.RateLimitPerSec < 0 || c.RPC.RateLimitBurst < 0 {
		return fmt.Errorf("rpc: rate limits must not be negative")
	}
	if _, err := c.Genesis.Parse(); err != nil {
		return err
	}
	return nil
}

// Validate checks the protocol parameters.
func (p Protocol) Validate() error {
	if p.RewardRateBps > 10_000 {
		return fmt.Errorf("protocol: RewardRateBps out of range: %d", p.RewardRateBps)
	}
	if _, err := p.MinStakeAmount(); err != nil {
		return fmt.Errorf("protocol: MinStake: %w", err)
	}
	if _, err := p.MinQuestionFundingAmount(); err != nil {
		return fmt.Errorf("protocol: MinQuestionFunding: %w", err)
	}
	if p.FinalizationTimeout == 0 {
		return fmt.Errorf("protocol: FinalizationTimeout must be positive")
	}
	if _, err := p.ClaimAcceptedAnswerWord(); err != nil {
		return fmt.Errorf("protocol: ClaimAcceptedAnswer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(p.StakeScope)) {
	case "global", "per-chain", "per_chain", "chain":
	default:
		return fmt.Errorf("protocol: unknown StakeScope %q", p.StakeScope)
	}
	switch strings.ToLower(strings.TrimSpace(p.PaymentIDScheme)) {
	case "offer", "sender-nonce", "sender_nonce":
	default:
		return fmt.Errorf("protocol: unknown PaymentIDScheme %q", p.PaymentIDScheme)
	}
	return nil
}
