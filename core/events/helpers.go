package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"crosstrade/core/types"
)

// Wrap adapts a rendered payload into an Event so packages can emit plain
// attribute maps without declaring a struct per event.
func Wrap(evt *types.Event) Event {
	return wrapped{evt: evt}
}

type wrapped struct {
	evt *types.Event
}

func (w wrapped) EventType() string {
	if w.evt == nil {
		return ""
	}
	return w.evt.Type
}

func (w wrapped) Event() *types.Event { return w.evt }

// FormatAddress renders a 20-byte address in EIP-55 checksum form.
func FormatAddress(addr [20]byte) string {
	return common.Address(addr).Hex()
}

// FormatHash renders a 32-byte identifier as 0x-prefixed hex.
func FormatHash(h [32]byte) string {
	return common.Hash(h).Hex()
}

// FormatAmount renders an amount as a base-10 string, treating nil as zero.
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
