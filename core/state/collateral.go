package state

import "math/big"

// StakeGet returns the stake recorded for addr in scope; zero when unset.
func (m *Manager) StakeGet(addr [20]byte, scope uint64) (*big.Int, error) {
	return m.loadAmount(StakeKey(addr, scope))
}

// StakePut records the stake for addr in scope and keeps the scope total in
// step with it.
func (m *Manager) StakePut(addr [20]byte, scope uint64, amount *big.Int) error {
	previous, err := m.StakeGet(addr, scope)
	if err != nil {
		return err
	}
	total, err := m.StakeTotal(scope)
	if err != nil {
		return err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	total.Sub(total, previous)
	total.Add(total, amount)
	if err := m.storeAmount(StakeKey(addr, scope), amount); err != nil {
		return err
	}
	return m.storeAmount(stakeTotalKey(scope), total)
}

// StakeTotal returns the sum of all stakes recorded in scope.
func (m *Manager) StakeTotal(scope uint64) (*big.Int, error) {
	return m.loadAmount(stakeTotalKey(scope))
}
