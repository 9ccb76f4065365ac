package state

import (
	"fmt"
	"math/big"
)

func (m *Manager) loadAmount(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (m *Manager) storeAmount(key []byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative amount %s", amount)
	}
	return m.KVPut(key, amount)
}

// BankBalance returns owner's balance of token; zero when unset.
func (m *Manager) BankBalance(token, owner [20]byte) (*big.Int, error) {
	return m.loadAmount(BankBalanceKey(token, owner))
}

// SetBankBalance stores owner's balance of token.
func (m *Manager) SetBankBalance(token, owner [20]byte, amount *big.Int) error {
	return m.storeAmount(BankBalanceKey(token, owner), amount)
}

// BankAllowance returns the amount spender may move out of owner's balance.
func (m *Manager) BankAllowance(token, owner, spender [20]byte) (*big.Int, error) {
	return m.loadAmount(BankAllowanceKey(token, owner, spender))
}

// SetBankAllowance overwrites the allowance granted to spender.
func (m *Manager) SetBankAllowance(token, owner, spender [20]byte, amount *big.Int) error {
	return m.storeAmount(BankAllowanceKey(token, owner, spender), amount)
}
