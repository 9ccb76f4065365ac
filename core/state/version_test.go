package state

import (
	"errors"
	"math/big"
	"testing"

	"crosstrade/storage"
)

func TestEnsureStateVersionInitialisesEmptyState(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	if err := EnsureStateVersion(m, false); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	version, ok, err := m.StateVersion()
	if err != nil || !ok || version != StateVersion {
		t.Fatalf("unexpected version %d ok=%v err=%v", version, ok, err)
	}
}

func TestEnsureStateVersionMigratesStakeTotals(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	var alice, bob [20]byte
	alice[0], bob[0] = 1, 2
	// Version 1 stored stakes without totals.
	if err := m.storeAmount(StakeKey(alice, 0), big.NewInt(3)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := m.storeAmount(StakeKey(bob, 0), big.NewInt(4)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := m.storeAmount(StakeKey(bob, 5), big.NewInt(9)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := m.SetStateVersion(1); err != nil {
		t.Fatalf("set version: %v", err)
	}

	if err := EnsureStateVersion(m, false); !errors.Is(err, ErrStateVersionMismatch) {
		t.Fatalf("expected mismatch without migration, got %v", err)
	}
	if err := EnsureStateVersion(m, true); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	global, _ := m.StakeTotal(0)
	chain, _ := m.StakeTotal(5)
	if global.Int64() != 7 || chain.Int64() != 9 {
		t.Fatalf("unexpected totals global=%s chain=%s", global, chain)
	}
	if m.Depth() != 0 {
		t.Fatalf("migration left journal open")
	}
}

func TestEnsureStateVersionRejectsNewerState(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	if err := m.SetStateVersion(StateVersion + 1); err != nil {
		t.Fatalf("set version: %v", err)
	}
	if err := EnsureStateVersion(m, true); !errors.Is(err, ErrStateVersionMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}
