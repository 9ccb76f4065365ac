package bank

import (
	"github.com/ethereum/go-ethereum/common"
)

// NativeToken is the token address denoting the chain's native asset.
var NativeToken [20]byte

// AssetKind distinguishes the native asset from token contracts.
type AssetKind uint8

const (
	AssetNative AssetKind = iota
	AssetToken
)

// AssetRef identifies an asset moved by the protocol. The zero address maps to
// the native asset.
type AssetRef struct {
	Kind  AssetKind
	Token [20]byte
}

// AssetOf returns the reference for the supplied token address.
func AssetOf(token [20]byte) AssetRef {
	if token == NativeToken {
		return AssetRef{Kind: AssetNative}
	}
	return AssetRef{Kind: AssetToken, Token: token}
}

// IsNative reports whether the asset is the chain's native asset.
func (a AssetRef) IsNative() bool { return a.Kind == AssetNative }

// Address returns the ledger address of the asset.
func (a AssetRef) Address() [20]byte {
	if a.Kind == AssetNative {
		return NativeToken
	}
	return a.Token
}

func (a AssetRef) String() string {
	switch a.Kind {
	case AssetNative:
		return "native"
	default:
		return common.Address(a.Token).Hex()
	}
}
