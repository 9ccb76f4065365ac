package collateral_test

import (
	"errors"
	"math/big"
	"testing"

	protoerrors "crosstrade/core/errors"
	"crosstrade/core/events"
	"crosstrade/core/state"
	"crosstrade/native/bank"
	"crosstrade/native/collateral"
	"crosstrade/native/common"
	"crosstrade/storage"
)

var reserve = [20]byte{19: 0xaa}

func addr(b byte) [20]byte {
	var a [20]byte
	a[0] = b
	return a
}

func newFixture(t *testing.T, scope collateral.Scope) (*state.Manager, *bank.Ledger, *collateral.Ledger) {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	tokens := bank.NewLedger(mgr)
	return mgr, tokens, collateral.NewLedger(mgr, tokens, reserve, scope)
}

func fund(t *testing.T, tokens *bank.Ledger, owner, spender [20]byte, amount int64) {
	t.Helper()
	if err := tokens.Mint(reserve, owner, big.NewInt(amount)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := tokens.Approve(reserve, owner, spender, big.NewInt(amount)); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func TestStakeAndUnstake(t *testing.T) {
	_, tokens, ledger := newFixture(t, collateral.ScopeGlobal)
	rec := &events.Recorder{}
	ledger.SetEmitter(rec)
	staker := addr(1)
	fund(t, tokens, staker, ledger.Vault(), 10)

	if err := ledger.Stake(common.NewCall(staker), 5, big.NewInt(10)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	stake, err := ledger.StakeOf(staker, 99)
	if err != nil {
		t.Fatalf("stake of: %v", err)
	}
	if stake.Int64() != 10 {
		t.Fatalf("global stake should ignore chain id, got %s", stake)
	}
	vault, _ := tokens.BalanceOf(reserve, ledger.Vault())
	if vault.Int64() != 10 {
		t.Fatalf("vault balance %s", vault)
	}

	err = ledger.Unstake(common.NewCall(staker), 0, big.NewInt(11))
	if !errors.Is(err, protoerrors.ErrInsufficientStake) {
		t.Fatalf("expected insufficient stake, got %v", err)
	}
	if err := ledger.Unstake(common.NewCall(staker), 0, big.NewInt(4)); err != nil {
		t.Fatalf("unstake: %v", err)
	}
	balance, _ := tokens.BalanceOf(reserve, staker)
	if balance.Int64() != 4 {
		t.Fatalf("staker balance %s", balance)
	}
	total, err := ledger.TotalStaked(0)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Int64() != 6 {
		t.Fatalf("total staked %s", total)
	}
	if got := len(rec.Events()); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}
	if rec.Events()[0].Type != collateral.EventTypeStaked {
		t.Fatalf("unexpected first event %s", rec.Events()[0].Type)
	}
}

func TestPerChainScopeSeparatesStakes(t *testing.T) {
	_, tokens, ledger := newFixture(t, collateral.ScopePerChain)
	staker := addr(1)
	fund(t, tokens, staker, ledger.Vault(), 10)
	if err := ledger.Stake(common.NewCall(staker), 5, big.NewInt(10)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	other, err := ledger.StakeOf(staker, 6)
	if err != nil {
		t.Fatalf("stake of: %v", err)
	}
	if other.Sign() != 0 {
		t.Fatalf("stake leaked across chains: %s", other)
	}
	own, _ := ledger.StakeOf(staker, 5)
	if own.Int64() != 10 {
		t.Fatalf("unexpected stake %s", own)
	}
}

func TestStakeRejectsValueAndMissingAllowance(t *testing.T) {
	_, tokens, ledger := newFixture(t, collateral.ScopeGlobal)
	staker := addr(1)
	if err := tokens.Mint(reserve, staker, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	err := ledger.Stake(common.NewCall(staker).WithValue(big.NewInt(1)), 0, big.NewInt(5))
	if !errors.Is(err, protoerrors.ErrAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}
	err = ledger.Stake(common.NewCall(staker), 0, big.NewInt(5))
	if !errors.Is(err, protoerrors.ErrInsufficientAllowance) {
		t.Fatalf("expected insufficient allowance, got %v", err)
	}
	if err := ledger.Stake(common.NewCall(staker), 0, big.NewInt(0)); !errors.Is(err, protoerrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestCreditMovesReserveIntoStake(t *testing.T) {
	_, tokens, ledger := newFixture(t, collateral.ScopeGlobal)
	source := addr(7)
	beneficiary := addr(2)
	if err := tokens.Mint(reserve, source, big.NewInt(3)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Credit(source, beneficiary, 1, big.NewInt(3)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	stake, _ := ledger.StakeOf(beneficiary, 1)
	if stake.Int64() != 3 {
		t.Fatalf("unexpected stake %s", stake)
	}
	if err := ledger.Credit(source, beneficiary, 1, big.NewInt(0)); err != nil {
		t.Fatalf("zero credit: %v", err)
	}
	err := ledger.Credit(source, beneficiary, 1, big.NewInt(1))
	if !errors.Is(err, protoerrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestPausedLedgerRejectsStake(t *testing.T) {
	_, tokens, ledger := newFixture(t, collateral.ScopeGlobal)
	ledger.SetPauses(common.StaticPauses{"collateral": true})
	fund(t, tokens, addr(1), ledger.Vault(), 1)
	if err := ledger.Stake(common.NewCall(addr(1)), 0, big.NewInt(1)); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected paused error, got %v", err)
	}
}

func TestParseScope(t *testing.T) {
	if s, err := collateral.ParseScope(""); err != nil || s != collateral.ScopeGlobal {
		t.Fatalf("empty scope: %v %v", s, err)
	}
	if s, err := collateral.ParseScope("per_chain"); err != nil || s != collateral.ScopePerChain {
		t.Fatalf("per chain scope: %v %v", s, err)
	}
	if _, err := collateral.ParseScope("galactic"); err == nil {
		t.Fatalf("expected error")
	}
}
