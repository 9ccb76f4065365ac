package state

import (
	"encoding/binary"
)

var (
	bankBalancePrefix   = []byte("bank/balance/")
	bankAllowancePrefix = []byte("bank/allowance/")

	collateralStakePrefix = []byte("collateral/stake/")
	collateralTotalPrefix = []byte("collateral/total/")

	escrowRequestPrefix = []byte("escrow/request/")
	escrowNoncePrefix   = []byte("escrow/nonce/")
	escrowOfferPrefix   = []byte("escrow/offer/")
	escrowByRequester   = []byte("escrow/by-requester/")

	relayPaymentPrefix = []byte("relay/payment/")
	relayNoncePrefix   = []byte("relay/nonce/")

	questionPrefix      = []byte("arbitration/question/")
	questionNonceKey    = []byte("arbitration/nonce")
	paramStorePrefix    = []byte("params/")
	genesisAppliedKey   = []byte("genesis/applied")
	stateVersionKeyName = []byte("state/version")
)

func joinKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, p := range parts {
		size += len(p)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return buf
}

func u64Bytes(v uint64) []byte {
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], v)
	return out[:]
}

// BankBalanceKey returns the key holding owner's balance of token.
func BankBalanceKey(token, owner [20]byte) []byte {
	return joinKey(bankBalancePrefix, token[:], owner[:])
}

// BankAllowanceKey returns the key holding the allowance owner granted spender.
func BankAllowanceKey(token, owner, spender [20]byte) []byte {
	return joinKey(bankAllowancePrefix, token[:], owner[:], spender[:])
}

// StakeKey returns the key holding addr's stake in the supplied scope.
func StakeKey(addr [20]byte, scope uint64) []byte {
	return joinKey(collateralStakePrefix, addr[:], u64Bytes(scope))
}

func stakeTotalKey(scope uint64) []byte {
	return joinKey(collateralTotalPrefix, u64Bytes(scope))
}

// EscrowRequestKey returns the key of a request record.
func EscrowRequestKey(id [32]byte) []byte {
	return joinKey(escrowRequestPrefix, id[:])
}

// EscrowNonceKey returns the key marking a (requester, nonce) pair as used.
func EscrowNonceKey(requester [20]byte, nonce [32]byte) []byte {
	return joinKey(escrowNoncePrefix, requester[:], nonce[:])
}

// EscrowOfferKey returns the key of an offer record.
func EscrowOfferKey(requestID [32]byte, index uint64) []byte {
	return joinKey(escrowOfferPrefix, requestID[:], u64Bytes(index))
}

func escrowRequesterIndexKey(requester [20]byte) []byte {
	return joinKey(escrowByRequester, requester[:])
}

// RelayPaymentKey returns the key of a payment record.
func RelayPaymentKey(id [32]byte) []byte {
	return joinKey(relayPaymentPrefix, id[:])
}

func relayNonceKey(sender [20]byte) []byte {
	return joinKey(relayNoncePrefix, sender[:])
}

// QuestionKey returns the key of an arbitration question.
func QuestionKey(id [32]byte) []byte {
	return joinKey(questionPrefix, id[:])
}

func paramStoreKey(name string) []byte {
	return joinKey(paramStorePrefix, []byte(name))
}
