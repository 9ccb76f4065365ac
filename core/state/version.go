package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// StateVersion identifies the expected on-disk schema layout. Version 1 kept a
// single global stake per address; version 2 keys stakes by scope and keeps
// per-scope totals.
const StateVersion uint32 = 2

// ErrStateVersionMismatch indicates the stored schema version does not match
// the version supported by the current binary.
var ErrStateVersionMismatch = errors.New("state: schema version mismatch")

// Migration upgrades state from version From to From+1.
type Migration struct {
	From  uint32
	Apply func(*Manager) error
}

// Migrations lists the registered schema upgrades in order.
var Migrations = []Migration{
	{From: 0, Apply: func(*Manager) error { return nil }},
	{From: 1, Apply: migrateStakeTotals},
}

// SetStateVersion records the provided schema version in state. Callers should
// invoke this after performing any required migrations.
func (m *Manager) SetStateVersion(version uint32) error {
	if m == nil {
		return fmt.Errorf("state: manager unavailable")
	}
	return m.KVPut(stateVersionKeyName, uint64(version))
}

// StateVersion returns the stored schema version and a boolean indicating
// whether the value was present.
func (m *Manager) StateVersion() (uint32, bool, error) {
	if m == nil {
		return 0, false, fmt.Errorf("state: manager unavailable")
	}
	var stored uint64
	ok, err := m.KVGet(stateVersionKeyName, &stored)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	if stored > uint64(math.MaxUint32) {
		return 0, false, fmt.Errorf("state: schema version overflow: %d", stored)
	}
	return uint32(stored), true, nil
}

// EnsureStateVersion verifies that the on-disk state version matches the
// version supported by this binary. When allowMigrate is true, registered
// migrations are applied in order inside a single journal.
func EnsureStateVersion(m *Manager, allowMigrate bool) error {
	if m == nil {
		return fmt.Errorf("state: manager must not be nil")
	}
	version, ok, err := m.StateVersion()
	if err != nil {
		return err
	}
	if !ok {
		empty, err := m.isEmpty()
		if err != nil {
			return err
		}
		if empty {
			return m.SetStateVersion(StateVersion)
		}
	}
	if version == StateVersion {
		return nil
	}
	if version > StateVersion || !allowMigrate {
		return fmt.Errorf("%w: on-disk=%d expected=%d", ErrStateVersionMismatch, version, StateVersion)
	}
	m.Begin()
	for _, migration := range Migrations {
		if migration.From < version {
			continue
		}
		if migration.From >= StateVersion {
			break
		}
		if err := migration.Apply(m); err != nil {
			_ = m.Rollback()
			return fmt.Errorf("state: migrate from v%d: %w", migration.From, err)
		}
	}
	if err := m.SetStateVersion(StateVersion); err != nil {
		_ = m.Rollback()
		return err
	}
	return m.Commit()
}

func (m *Manager) isEmpty() (bool, error) {
	empty := true
	err := m.Iterate(nil, func(_, _ []byte) bool {
		empty = false
		return false
	})
	return empty, err
}

// migrateStakeTotals rebuilds the per-scope stake totals introduced in
// version 2 from the individual stake records.
func migrateStakeTotals(m *Manager) error {
	totals := make(map[uint64]*big.Int)
	var decodeErr error
	err := m.Iterate(collateralStakePrefix, func(key, value []byte) bool {
		if len(key) != len(collateralStakePrefix)+20+8 {
			return true
		}
		scope := binary.BigEndian.Uint64(key[len(key)-8:])
		amount := new(big.Int)
		if err := rlp.DecodeBytes(value, amount); err != nil {
			decodeErr = err
			return false
		}
		if totals[scope] == nil {
			totals[scope] = big.NewInt(0)
		}
		totals[scope].Add(totals[scope], amount)
		return true
	})
	if err != nil {
		return err
	}
	if decodeErr != nil {
		return decodeErr
	}
	for scope, total := range totals {
		if err := m.storeAmount(stakeTotalKey(scope), total); err != nil {
			return err
		}
	}
	return nil
}
