package state

import "fmt"

// ParamStoreSet stores a raw parameter payload under name.
func (m *Manager) ParamStoreSet(name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("params: name required")
	}
	return m.put(paramStoreKey(name), append([]byte(nil), value...))
}

// ParamStoreGet loads the raw parameter payload stored under name.
func (m *Manager) ParamStoreGet(name string) ([]byte, bool, error) {
	if name == "" {
		return nil, false, fmt.Errorf("params: name required")
	}
	data, ok, err := m.get(paramStoreKey(name))
	if err != nil || !ok {
		return nil, ok, err
	}
	return append([]byte(nil), data...), true, nil
}

// GenesisApplied reports whether genesis allocations were already written.
func (m *Manager) GenesisApplied() (bool, error) {
	return m.KVHas(genesisAppliedKey)
}

// MarkGenesisApplied records that genesis allocations were written.
func (m *Manager) MarkGenesisApplied() error {
	return m.KVPut(genesisAppliedKey, true)
}
