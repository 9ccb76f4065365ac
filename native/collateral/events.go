package collateral

import (
	"math/big"
	"strconv"

	"crosstrade/core/events"
	"crosstrade/core/types"
)

const (
	EventTypeStaked   = "collateral.staked"
	EventTypeUnstaked = "collateral.unstaked"
	EventTypeRewarded = "collateral.rewarded"
)

// NewStakedEvent returns the payload emitted after a stake increase.
func NewStakedEvent(addr [20]byte, scope uint64, amount, total *big.Int) *types.Event {
	return newStakeEvent(EventTypeStaked, addr, scope, amount, total)
}

// NewUnstakedEvent returns the payload emitted after a stake withdrawal.
func NewUnstakedEvent(addr [20]byte, scope uint64, amount, total *big.Int) *types.Event {
	return newStakeEvent(EventTypeUnstaked, addr, scope, amount, total)
}

// NewRewardedEvent returns the payload emitted when a settlement reward is
// credited to a stake.
func NewRewardedEvent(addr [20]byte, scope uint64, amount, total *big.Int) *types.Event {
	return newStakeEvent(EventTypeRewarded, addr, scope, amount, total)
}

func newStakeEvent(eventType string, addr [20]byte, scope uint64, amount, total *big.Int) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"address": events.FormatAddress(addr),
			"chainId": strconv.FormatUint(scope, 10),
			"amount":  events.FormatAmount(amount),
			"stake":   events.FormatAmount(total),
		},
	}
}
