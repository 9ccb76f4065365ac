package crypto

import (
	"encoding/binary"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Packer builds the canonical, order-sensitive byte encoding hashed into every
// composite identifier: addresses are 20 raw bytes, integers are 32-byte
// big-endian words and hashes are 32 raw bytes. The layout matches Solidity's
// abi.encodePacked for (address, uint256, bytes32, bool) so ids can be
// recomputed by any caller replaying a claim.
type Packer struct {
	buf []byte
}

// NewPacker returns an empty packer.
func NewPacker() *Packer {
	return &Packer{buf: make([]byte, 0, 256)}
}

// Address appends a 20-byte address.
func (p *Packer) Address(addr [20]byte) *Packer {
	p.buf = append(p.buf, addr[:]...)
	return p
}

// Hash appends a 32-byte word.
func (p *Packer) Hash(h [32]byte) *Packer {
	p.buf = append(p.buf, h[:]...)
	return p
}

// Uint64 appends v as a uint256 word.
func (p *Packer) Uint64(v uint64) *Packer {
	word := uint256.NewInt(v).Bytes32()
	p.buf = append(p.buf, word[:]...)
	return p
}

// Uint32 appends v as a 4-byte big-endian word, matching a packed uint32.
func (p *Packer) Uint32(v uint32) *Packer {
	p.buf = binary.BigEndian.AppendUint32(p.buf, v)
	return p
}

// Big appends v as a uint256 word. Negative or oversized values are rejected
// by callers before packing; here they collapse to their uint256 truncation.
func (p *Packer) Big(v *big.Int) *Packer {
	word := new(uint256.Int)
	if v != nil && v.Sign() > 0 {
		word, _ = uint256.FromBig(v)
	}
	bytes := word.Bytes32()
	p.buf = append(p.buf, bytes[:]...)
	return p
}

// Bool appends a single byte, 0x01 for true.
func (p *Packer) Bool(v bool) *Packer {
	if v {
		p.buf = append(p.buf, 1)
	} else {
		p.buf = append(p.buf, 0)
	}
	return p
}

// Bytes appends raw bytes.
func (p *Packer) Bytes(b []byte) *Packer {
	p.buf = append(p.buf, b...)
	return p
}

// Encoded returns a copy of the packed bytes.
func (p *Packer) Encoded() []byte {
	return append([]byte(nil), p.buf...)
}

// Sum returns keccak256 over the packed bytes.
func (p *Packer) Sum() [32]byte {
	return ethcrypto.Keccak256Hash(p.buf)
}

// Keccak256 hashes the concatenation of the supplied byte slices.
func Keccak256(data ...[]byte) [32]byte {
	return ethcrypto.Keccak256Hash(data...)
}

// FitsUint256 reports whether v is a non-negative integer representable as a
// uint256 word.
func FitsUint256(v *big.Int) bool {
	if v == nil || v.Sign() < 0 {
		return false
	}
	_, overflow := uint256.FromBig(v)
	return !overflow
}
