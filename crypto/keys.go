package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix defines the human-readable part used for bech32 renderings.
type AddressPrefix string

// XTPrefix is the prefix used when participants prefer bech32 addresses over
// hex. Both renderings decode to the same 20 bytes.
const XTPrefix AddressPrefix = "xt"

// Address represents a 20-byte participant address.
type Address [20]byte

// ZeroAddress is the all-zero address. As a token address it denotes the
// chain's native asset.
var ZeroAddress Address

// BytesToAddress converts b into an address, keeping the last 20 bytes.
func BytesToAddress(b []byte) Address {
	return Address(common.BytesToAddress(b))
}

// Hex renders the EIP-55 checksummed form.
func (a Address) Hex() string { return common.Address(a).Hex() }

func (a Address) String() string { return a.Hex() }

// Bech32 renders the address with the supplied human-readable prefix.
func (a Address) Bech32(prefix AddressPrefix) string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// IsZero reports whether the address is all zeros.
func (a Address) IsZero() bool { return a == ZeroAddress }

// ParseAddress accepts either a 0x-prefixed hex address or a bech32 address.
func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Address{}, fmt.Errorf("address required")
	}
	if common.IsHexAddress(trimmed) {
		return Address(common.HexToAddress(trimmed)), nil
	}
	_, decoded, err := bech32.Decode(trimmed)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	if len(conv) != 20 {
		return Address{}, fmt.Errorf("address must be 20 bytes long, got %d", len(conv))
	}
	var out Address
	copy(out[:], conv)
	return out, nil
}

// ModuleAddress derives the vault address owned by a protocol module. Vault
// addresses have no private key.
func ModuleAddress(module string) Address {
	return BytesToAddress(crypto.Keccak256([]byte("module/" + module)))
}

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

func (k *PublicKey) Address() Address {
	return Address(crypto.PubkeyToAddress(*k.PublicKey))
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}
