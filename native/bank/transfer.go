package bank

import (
	"errors"
	"fmt"
	"math/big"

	protoerrors "crosstrade/core/errors"
	"crosstrade/native/common"
)

// Token is the ERC20-style ledger capability consumed by the protocol
// modules. Every method is keyed by the token address; the zero address is the
// native asset.
type Token interface {
	BalanceOf(token, owner [20]byte) (*big.Int, error)
	Allowance(token, owner, spender [20]byte) (*big.Int, error)
	Approve(token, owner, spender [20]byte, amount *big.Int) error
	Transfer(token, from, to [20]byte, amount *big.Int) error
	TransferFrom(token, spender, from, to [20]byte, amount *big.Int) error
}

type ledgerState interface {
	BankBalance(token, owner [20]byte) (*big.Int, error)
	SetBankBalance(token, owner [20]byte, amount *big.Int) error
	BankAllowance(token, owner, spender [20]byte) (*big.Int, error)
	SetBankAllowance(token, owner, spender [20]byte, amount *big.Int) error
}

var errNilState = errors.New("bank: state not configured")

// Ledger is the state-backed reference implementation of Token.
type Ledger struct {
	state ledgerState
}

// NewLedger constructs a ledger over the supplied state.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

var _ Token = (*Ledger)(nil)

func (l *Ledger) withState() (ledgerState, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state, nil
}

// BalanceOf returns the balance held by owner.
func (l *Ledger) BalanceOf(token, owner [20]byte) (*big.Int, error) {
	st, err := l.withState()
	if err != nil {
		return nil, err
	}
	return st.BankBalance(token, owner)
}

// Allowance returns the amount spender may move on behalf of owner.
func (l *Ledger) Allowance(token, owner, spender [20]byte) (*big.Int, error) {
	st, err := l.withState()
	if err != nil {
		return nil, err
	}
	return st.BankAllowance(token, owner, spender)
}

// Approve overwrites the allowance granted by owner to spender.
func (l *Ledger) Approve(token, owner, spender [20]byte, amount *big.Int) error {
	st, err := l.withState()
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return protoerrors.ErrInvalidAmount
	}
	return st.SetBankAllowance(token, owner, spender, amount)
}

// Transfer moves amount from one owner to another.
func (l *Ledger) Transfer(token, from, to [20]byte, amount *big.Int) error {
	st, err := l.withState()
	if err != nil {
		return err
	}
	return move(st, token, from, to, amount)
}

// TransferFrom moves amount from owner to recipient, consuming the allowance
// granted to spender.
func (l *Ledger) TransferFrom(token, spender, from, to [20]byte, amount *big.Int) error {
	st, err := l.withState()
	if err != nil {
		return err
	}
	if err := common.RequirePositive(amount); err != nil {
		return err
	}
	allowance, err := st.BankAllowance(token, from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", protoerrors.ErrInsufficientAllowance, allowance, amount)
	}
	if err := move(st, token, from, to, amount); err != nil {
		return err
	}
	return st.SetBankAllowance(token, from, spender, new(big.Int).Sub(allowance, amount))
}

// Mint credits amount to the recipient. It is only used while applying
// genesis allocations and in tests.
func (l *Ledger) Mint(token, to [20]byte, amount *big.Int) error {
	st, err := l.withState()
	if err != nil {
		return err
	}
	if err := common.RequirePositive(amount); err != nil {
		return err
	}
	balance, err := st.BankBalance(token, to)
	if err != nil {
		return err
	}
	return st.SetBankBalance(token, to, new(big.Int).Add(balance, amount))
}

func move(st ledgerState, token, from, to [20]byte, amount *big.Int) error {
	if err := common.RequirePositive(amount); err != nil {
		return err
	}
	fromBalance, err := st.BankBalance(token, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", protoerrors.ErrInsufficientBalance, fromBalance, amount)
	}
	if from == to {
		return nil
	}
	toBalance, err := st.BankBalance(token, to)
	if err != nil {
		return err
	}
	if err := st.SetBankBalance(token, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return st.SetBankBalance(token, to, new(big.Int).Add(toBalance, amount))
}

// CollectValue moves the native value attached to call into vault.
func CollectValue(t Token, call common.Call, vault [20]byte) error {
	if !call.HasValue() {
		return nil
	}
	return t.Transfer(NativeToken, call.Caller, vault, call.AttachedValue())
}

// Pull moves amount of token from owner into vault, spending the allowance
// owner granted to vault.
func Pull(t Token, token, owner, vault [20]byte, amount *big.Int) error {
	return t.TransferFrom(token, vault, owner, vault, amount)
}

// Pay moves amount of asset out of the vault. Zero amounts are a no-op.
func Pay(t Token, asset AssetRef, vault, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	return t.Transfer(asset.Address(), vault, to, amount)
}
